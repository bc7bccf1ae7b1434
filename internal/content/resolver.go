package content

import (
	"context"
	"log/slog"

	"github.com/hitoshi/portfolio/internal/model"
)

// プロバイダ名
const (
	ProviderRemote = "sanity"
	ProviderLocal  = "markdown"
)

// RemoteProvider はホスト型CMSからコンテンツを取得する。
// sanity.Clientが実装する。by-slug系はレコードが存在しない場合にnil, nilを返す。
type RemoteProvider interface {
	Projects(ctx context.Context) ([]model.Project, error)
	ProjectBySlug(ctx context.Context, slug string) (*model.Project, error)
	ProjectsByCategory(ctx context.Context, category string) ([]model.Project, error)
	Posts(ctx context.Context) ([]model.Post, error)
	PostBySlug(ctx context.Context, slug string) (*model.Post, error)
	FeaturedPosts(ctx context.Context) ([]model.Post, error)
	Profile(ctx context.Context) (*model.Profile, error)
}

// FallbackRecorder はリモート失敗によるローカルへのフォールバックを記録する。
type FallbackRecorder interface {
	RecordContentFallback(kind string)
}

// Resolver はリモートCMSとローカルストアを切り替えるコンテンツの統一窓口。
//
// リモートが設定されているかは生成時に一度だけ決まる。リモートがエラーを返した場合は
// 警告ログを出してローカルストアで同じ問い合わせをやり直す。呼び出し側にエラーは返さず、
// 最悪の場合でも空のスライスかnil（未検出）となる。
type Resolver struct {
	remote   RemoteProvider
	local    *LocalStore
	site     model.Profile
	logger   *slog.Logger
	recorder FallbackRecorder
}

// NewResolver はResolverを生成する。
// remoteがnilの場合はローカルストアのみを使用する。siteはプロフィールの最終フォールバック。
func NewResolver(remote RemoteProvider, local *LocalStore, site model.Profile, logger *slog.Logger, recorder FallbackRecorder) *Resolver {
	site.Source = model.SourceLocal
	return &Resolver{
		remote:   remote,
		local:    local,
		site:     site,
		logger:   logger,
		recorder: recorder,
	}
}

// Provider は使用中のコンテンツプロバイダ名を返す。
func (r *Resolver) Provider() string {
	if r.remote != nil {
		return ProviderRemote
	}
	return ProviderLocal
}

// ListProjects は全プロジェクトを返す。
func (r *Resolver) ListProjects(ctx context.Context) []model.Project {
	if r.remote != nil {
		projects, err := r.remote.Projects(ctx)
		if err == nil {
			return nonNil(projects)
		}
		r.fallback(ctx, "projects", err)
	}
	projects, err := r.local.Projects(ctx)
	if err != nil {
		r.localFailed(ctx, "projects", err)
		return []model.Project{}
	}
	return nonNil(projects)
}

// ListProjectsByCategory はカテゴリで絞り込んだプロジェクトを返す。
func (r *Resolver) ListProjectsByCategory(ctx context.Context, category string) []model.Project {
	if r.remote != nil {
		projects, err := r.remote.ProjectsByCategory(ctx, category)
		if err == nil {
			return nonNil(projects)
		}
		r.fallback(ctx, "projects_by_category", err)
	}
	projects, err := r.local.ProjectsByCategory(ctx, category)
	if err != nil {
		r.localFailed(ctx, "projects_by_category", err)
		return []model.Project{}
	}
	return nonNil(projects)
}

// GetProjectBySlug はslugに一致するプロジェクトを返す。見つからない場合はnil。
func (r *Resolver) GetProjectBySlug(ctx context.Context, slug string) *model.Project {
	if r.remote != nil {
		project, err := r.remote.ProjectBySlug(ctx, slug)
		if err == nil {
			return project
		}
		r.fallback(ctx, "project", err)
	}
	project, err := r.local.ProjectBySlug(ctx, slug)
	if err != nil {
		r.localFailed(ctx, "project", err)
		return nil
	}
	return project
}

// ListPosts は全記事を返す。
func (r *Resolver) ListPosts(ctx context.Context) []model.Post {
	if r.remote != nil {
		posts, err := r.remote.Posts(ctx)
		if err == nil {
			return nonNil(posts)
		}
		r.fallback(ctx, "posts", err)
	}
	posts, err := r.local.Posts(ctx)
	if err != nil {
		r.localFailed(ctx, "posts", err)
		return []model.Post{}
	}
	return nonNil(posts)
}

// ListFeaturedPosts はおすすめ記事を返す。
func (r *Resolver) ListFeaturedPosts(ctx context.Context) []model.Post {
	if r.remote != nil {
		posts, err := r.remote.FeaturedPosts(ctx)
		if err == nil {
			return nonNil(posts)
		}
		r.fallback(ctx, "featured_posts", err)
	}
	posts, err := r.local.FeaturedPosts(ctx)
	if err != nil {
		r.localFailed(ctx, "featured_posts", err)
		return []model.Post{}
	}
	return nonNil(posts)
}

// GetPostBySlug はslugに一致する記事を返す。見つからない場合はnil。
func (r *Resolver) GetPostBySlug(ctx context.Context, slug string) *model.Post {
	if r.remote != nil {
		post, err := r.remote.PostBySlug(ctx, slug)
		if err == nil {
			return post
		}
		r.fallback(ctx, "post", err)
	}
	post, err := r.local.PostBySlug(ctx, slug)
	if err != nil {
		r.localFailed(ctx, "post", err)
		return nil
	}
	return post
}

// GetProfile はプロフィールを返す。
// リモートが未設定・失敗・未登録のいずれの場合も静的なサイト設定を返す。
func (r *Resolver) GetProfile(ctx context.Context) model.Profile {
	if r.remote != nil {
		profile, err := r.remote.Profile(ctx)
		switch {
		case err != nil:
			r.fallback(ctx, "profile", err)
		case profile != nil:
			return *profile
		}
	}
	return r.site
}

func (r *Resolver) fallback(ctx context.Context, kind string, err error) {
	r.logger.WarnContext(ctx, "remote content fetch failed, falling back to local",
		slog.String("kind", kind),
		slog.String("error", err.Error()),
	)
	if r.recorder != nil {
		r.recorder.RecordContentFallback(kind)
	}
}

func (r *Resolver) localFailed(ctx context.Context, kind string, err error) {
	r.logger.ErrorContext(ctx, "local content read failed",
		slog.String("kind", kind),
		slog.String("error", err.Error()),
	)
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
