package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"eventlocator/internal/config"
	"eventlocator/internal/domain/category"
)

type CategoryLister interface {
	List(ctx context.Context) ([]category.Category, error)
}

// CategoriesHandler serves the fixed category vocabulary so clients can
// build pickers without hardcoding ids.
type CategoriesHandler struct {
	repo CategoryLister
}

func NewCategoriesHandler(repo CategoryLister) *CategoriesHandler {
	return &CategoriesHandler{repo: repo}
}

func (h *CategoriesHandler) ListCategories(ctx *gin.Context) {
	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	cats, err := h.repo.List(cctx)

	if err != nil {
		RespondInternal(ctx, "Could not list categories")
		return
	}

	if cats == nil {
		cats = []category.Category{}
	}

	ctx.JSON(http.StatusOK, gin.H{
		"items": cats,
		"count": len(cats),
	})
}
