package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/portfolio/internal/model"
)

// ContentResolverInterface はコンテンツハンドラーが必要とするリゾルバのインターフェース。
// 取得失敗はリゾルバ内で吸収されるため、いずれのメソッドもエラーを返さない。
type ContentResolverInterface interface {
	ListProjects(ctx context.Context) []model.Project
	ListProjectsByCategory(ctx context.Context, category string) []model.Project
	GetProjectBySlug(ctx context.Context, slug string) *model.Project
	ListPosts(ctx context.Context) []model.Post
	ListFeaturedPosts(ctx context.Context) []model.Post
	GetPostBySlug(ctx context.Context, slug string) *model.Post
	GetProfile(ctx context.Context) model.Profile
}

// ContentHandler はプロジェクト・記事・プロフィールのHTTPハンドラー。
type ContentHandler struct {
	resolver ContentResolverInterface
}

// NewContentHandler はContentHandlerを生成する。
func NewContentHandler(resolver ContentResolverInterface) *ContentHandler {
	return &ContentHandler{resolver: resolver}
}

// ListPosts は記事一覧を返す。featured=true の場合は注目記事のみ。
// GET /api/posts
func (h *ContentHandler) ListPosts(w http.ResponseWriter, r *http.Request) {
	var posts []model.Post
	if r.URL.Query().Get("featured") == "true" {
		posts = h.resolver.ListFeaturedPosts(r.Context())
	} else {
		posts = h.resolver.ListPosts(r.Context())
	}
	writeJSON(w, http.StatusOK, posts)
}

// GetPost はslugに対応する記事を返す。
// GET /api/posts/{slug}
func (h *ContentHandler) GetPost(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	post := h.resolver.GetPostBySlug(r.Context(), slug)
	if post == nil {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewContentNotFoundError("post", slug))
		return
	}
	writeJSON(w, http.StatusOK, post)
}

// ListProjects はプロジェクト一覧を返す。categoryの指定があれば絞り込む。
// GET /api/projects
func (h *ContentHandler) ListProjects(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	if category == "" {
		writeJSON(w, http.StatusOK, h.resolver.ListProjects(r.Context()))
		return
	}

	if !model.ValidProjectCategory(category) {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidCategoryError(category))
		return
	}
	writeJSON(w, http.StatusOK, h.resolver.ListProjectsByCategory(r.Context(), category))
}

// GetProject はslugに対応するプロジェクトを返す。
// GET /api/projects/{slug}
func (h *ContentHandler) GetProject(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	project := h.resolver.GetProjectBySlug(r.Context(), slug)
	if project == nil {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewContentNotFoundError("project", slug))
		return
	}
	writeJSON(w, http.StatusOK, project)
}

// GetProfile はサイト所有者のプロフィールを返す。
// GET /api/profile
func (h *ContentHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.resolver.GetProfile(r.Context()))
}
