package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"eventlocator/internal/domain/category"
	"eventlocator/internal/domain/event"
	"eventlocator/internal/domain/geo"
	"eventlocator/internal/domain/user"
	"eventlocator/internal/http/handlers"
)

type fakeSearchRepo struct {
	byLocationFn    func(ctx context.Context, q event.LocationSearch) ([]event.Event, error)
	byPreferencesFn func(ctx context.Context, q event.PreferenceSearch) ([]event.Event, error)
}

func (f *fakeSearchRepo) SearchByLocation(ctx context.Context, q event.LocationSearch) ([]event.Event, error) {
	if f.byLocationFn != nil {
		return f.byLocationFn(ctx, q)
	}

	return nil, nil
}

func (f *fakeSearchRepo) SearchByPreferences(ctx context.Context, q event.PreferenceSearch) ([]event.Event, error) {
	if f.byPreferencesFn != nil {
		return f.byPreferencesFn(ctx, q)
	}

	return nil, nil
}

func TestSearchByLocationHandler(t *testing.T) {
	catA := newUUID()
	catB := newUUID()

	tests := []struct {
		name           string
		url            string
		repoSetup      func(*fakeSearchRepo)
		wantStatusCode int
	}{
		{
			name: "default_radius_10km",
			url:  "/api/search/location?latitude=43.65&longitude=-79.38",
			repoSetup: func(f *fakeSearchRepo) {
				f.byLocationFn = func(ctx context.Context, q event.LocationSearch) ([]event.Event, error) {
					if q.RadiusKm != 10 {
						return nil, errors.New("default radius should be 10km")
					}
					if q.Point.Latitude != 43.65 || q.Point.Longitude != -79.38 {
						return nil, errors.New("point not passed through")
					}
					return []event.Event{}, nil
				}
			},
			wantStatusCode: http.StatusOK,
		},
		{
			name: "custom_radius_and_categories",
			url:  "/api/search/location?latitude=43.65&longitude=-79.38&radius=2.5&categories=" + catA + "," + catB,
			repoSetup: func(f *fakeSearchRepo) {
				f.byLocationFn = func(ctx context.Context, q event.LocationSearch) ([]event.Event, error) {
					if q.RadiusKm != 2.5 {
						return nil, errors.New("radius not passed through")
					}
					if len(q.CategoryIDs) != 2 {
						return nil, errors.New("categories not passed through")
					}
					return []event.Event{}, nil
				}
			},
			wantStatusCode: http.StatusOK,
		},
		{
			name:           "missing_latitude",
			url:            "/api/search/location?longitude=-79.38",
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:           "latitude_out_of_range",
			url:            "/api/search/location?latitude=100&longitude=-79.38",
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:           "zero_radius",
			url:            "/api/search/location?latitude=43.65&longitude=-79.38&radius=0",
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:           "bad_category_list",
			url:            "/api/search/location?latitude=43.65&longitude=-79.38&categories=not-a-uuid",
			wantStatusCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			repo := &fakeSearchRepo{}

			if tt.repoSetup != nil {
				tt.repoSetup(repo)
			}

			h := handlers.NewSearchHandler(repo, &fakeUsersRepo{})

			r := setupRouter(http.MethodGet, "/api/search/location", h.ByLocation)

			req := httptest.NewRequest(http.MethodGet, tt.url, nil)

			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}
		})
	}
}

func TestSearchByLocationHandler_DistanceAnnotated(t *testing.T) {
	dist := 1.2

	repo := &fakeSearchRepo{
		byLocationFn: func(ctx context.Context, q event.LocationSearch) ([]event.Event, error) {
			return []event.Event{
				{ID: "event-1", Title: "Nearest", DistanceKm: &dist},
			}, nil
		},
	}

	h := handlers.NewSearchHandler(repo, &fakeUsersRepo{})

	r := setupRouter(http.MethodGet, "/api/search/location", h.ByLocation)

	req := httptest.NewRequest(http.MethodGet, "/api/search/location?latitude=43.65&longitude=-79.38", nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
	}

	var resp struct {
		Events []struct {
			DistanceKm *float64 `json:"distance_km"`
		} `json:"events"`
		Count int `json:"count"`
	}

	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad response body: %v", err)
	}

	if resp.Count != 1 || len(resp.Events) != 1 {
		t.Fatalf("unexpected result shape: %+v", resp)
	}

	if resp.Events[0].DistanceKm == nil || *resp.Events[0].DistanceKm != 1.2 {
		t.Fatalf("expected distance annotation, got %+v", resp.Events[0])
	}
}

func TestSearchByLocationHandler_DateRangeParams(t *testing.T) {
	tests := []struct {
		name string
		url  string
	}{
		{
			name: "startDate_endDate",
			url:  "/api/search/location?latitude=43.65&longitude=-79.38&startDate=2026-09-01T00:00:00Z&endDate=2026-09-30T00:00:00Z",
		},
		{
			name: "from_to_aliases",
			url:  "/api/search/location?latitude=43.65&longitude=-79.38&from=2026-09-01T00:00:00Z&to=2026-09-30T00:00:00Z",
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			var got event.LocationSearch

			repo := &fakeSearchRepo{
				byLocationFn: func(ctx context.Context, q event.LocationSearch) ([]event.Event, error) {
					got = q
					return []event.Event{}, nil
				},
			}

			h := handlers.NewSearchHandler(repo, &fakeUsersRepo{})

			r := setupRouter(http.MethodGet, "/api/search/location", h.ByLocation)

			req := httptest.NewRequest(http.MethodGet, tt.url, nil)

			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != http.StatusOK {
				t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
			}

			if got.From == nil || got.To == nil {
				t.Fatalf("date range not passed through: from=%v to=%v", got.From, got.To)
			}

			if got.From.Day() != 1 || got.To.Day() != 30 {
				t.Fatalf("wrong range: from=%v to=%v", got.From, got.To)
			}
		})
	}
}

func TestSearchByPreferencesHandler(t *testing.T) {
	catID := newUUID()
	loc := geo.Point{Longitude: -79.38, Latitude: 43.65}

	tests := []struct {
		name           string
		usersSetup     func(*fakeUsersRepo)
		repoSetup      func(*fakeSearchRepo)
		wantStatusCode int
		wantErrCode    string
	}{
		{
			name: "uses_stored_profile",
			usersSetup: func(f *fakeUsersRepo) {
				f.getByIDFn = func(ctx context.Context, id string) (user.User, error) {
					return user.User{
						ID:                  id,
						Location:            &loc,
						DefaultRadiusKm:     25,
						PreferredCategories: []category.Category{{ID: catID, Name: "Music"}},
					}, nil
				}
			},
			repoSetup: func(f *fakeSearchRepo) {
				f.byPreferencesFn = func(ctx context.Context, q event.PreferenceSearch) ([]event.Event, error) {
					if q.RadiusKm != 25 {
						return nil, errors.New("stored radius not used")
					}
					if q.Point != loc {
						return nil, errors.New("stored location not used")
					}
					if len(q.CategoryIDs) != 1 || q.CategoryIDs[0] != catID {
						return nil, errors.New("preferred categories not used")
					}
					if q.Now.IsZero() {
						return nil, errors.New("now must be set so past events are excluded")
					}
					if q.Limit != 50 {
						return nil, errors.New("preference search must cap results at 50")
					}

					return []event.Event{}, nil
				}
			},
			wantStatusCode: http.StatusOK,
		},
		{
			name: "no_stored_location",
			usersSetup: func(f *fakeUsersRepo) {
				f.getByIDFn = func(ctx context.Context, id string) (user.User, error) {
					return user.User{ID: id}, nil
				}
			},
			wantStatusCode: http.StatusBadRequest,
			wantErrCode:    "location_not_set",
		},
		{
			name: "unknown_user",
			usersSetup: func(f *fakeUsersRepo) {
				f.getByIDFn = func(ctx context.Context, id string) (user.User, error) {
					return user.User{}, user.ErrNotFound
				}
			},
			wantStatusCode: http.StatusNotFound,
		},
		{
			name: "zero_radius_falls_back_to_default",
			usersSetup: func(f *fakeUsersRepo) {
				f.getByIDFn = func(ctx context.Context, id string) (user.User, error) {
					return user.User{ID: id, Location: &loc}, nil
				}
			},
			repoSetup: func(f *fakeSearchRepo) {
				f.byPreferencesFn = func(ctx context.Context, q event.PreferenceSearch) ([]event.Event, error) {
					if q.RadiusKm != user.DefaultRadiusKm {
						return nil, errors.New("expected default radius fallback")
					}
					return []event.Event{}, nil
				}
			},
			wantStatusCode: http.StatusOK,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			users := &fakeUsersRepo{}
			repo := &fakeSearchRepo{}

			if tt.usersSetup != nil {
				tt.usersSetup(users)
			}
			if tt.repoSetup != nil {
				tt.repoSetup(repo)
			}

			h := handlers.NewSearchHandler(repo, users)

			r := setupAuthedRouter(http.MethodGet, "/api/search/preferences", "user-1", h.ByPreferences)

			req := httptest.NewRequest(http.MethodGet, "/api/search/preferences", nil)
			req.Header.Set("Authorization", "Bearer token")

			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}

			if tt.wantErrCode != "" {
				var resp struct {
					Error struct {
						Code string `json:"code"`
					} `json:"error"`
				}

				if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
					t.Fatalf("bad error body: %v", err)
				}

				if resp.Error.Code != tt.wantErrCode {
					t.Fatalf("got error code %q, want %q", resp.Error.Code, tt.wantErrCode)
				}
			}
		})
	}
}
