// Package content はポートフォリオのコンテンツ取得を提供する。
//
// LocalStore はコンテンツディレクトリのfront matter付きmarkdownを読み込み、
// Resolver はリモートCMSとLocalStoreを切り替えて統一的なAPIを提供する。
package content

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"slices"
	"strings"
	"time"

	"github.com/hitoshi/portfolio/internal/model"
)

// コンテンツ種別ごとのサブディレクトリ名。
const (
	projectsDir = "projects"
	postsDir    = "posts"
)

// dateLayouts はfront matterの日付として受け付ける書式。
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// LocalStore はローカルのmarkdownファイルからコンテンツを読み込むストア。
// 呼び出しごとにディレクトリを走査するため、ファイルの追加・更新は再起動なしで反映される。
type LocalStore struct {
	fsys     fs.FS
	renderer *Renderer
	logger   *slog.Logger
	now      func() time.Time
}

// NewLocalStore はfsysをルートとするLocalStoreを生成する。
// fsys直下の projects/ と posts/ を読み込む。
func NewLocalStore(fsys fs.FS, renderer *Renderer, logger *slog.Logger) *LocalStore {
	return &LocalStore{
		fsys:     fsys,
		renderer: renderer,
		logger:   logger,
		now:      time.Now,
	}
}

// NewLocalStoreFromDir はディスク上のディレクトリを読むLocalStoreを生成する。
func NewLocalStoreFromDir(dir string, renderer *Renderer, logger *slog.Logger) *LocalStore {
	return NewLocalStore(os.DirFS(dir), renderer, logger)
}

// Projects は全プロジェクトを日付の降順で返す。
// ディレクトリが存在しない場合は空のスライスを返す。
func (s *LocalStore) Projects(ctx context.Context) ([]model.Project, error) {
	files, err := s.readDir(ctx, projectsDir)
	if err != nil {
		return nil, err
	}

	projects := make([]model.Project, 0, len(files))
	for _, f := range files {
		p, err := s.buildProject(f)
		if err != nil {
			s.logger.Warn("skipping unreadable content file",
				slog.String("path", f.path),
				slog.String("error", err.Error()),
			)
			continue
		}
		projects = append(projects, p)
	}

	slices.SortStableFunc(projects, func(a, b model.Project) int {
		return b.Date.Compare(a.Date)
	})
	return projects, nil
}

// Posts は全記事を公開日の降順で返す。
// ディレクトリが存在しない場合は空のスライスを返す。
func (s *LocalStore) Posts(ctx context.Context) ([]model.Post, error) {
	files, err := s.readDir(ctx, postsDir)
	if err != nil {
		return nil, err
	}

	posts := make([]model.Post, 0, len(files))
	for _, f := range files {
		p, err := s.buildPost(f)
		if err != nil {
			s.logger.Warn("skipping unreadable content file",
				slog.String("path", f.path),
				slog.String("error", err.Error()),
			)
			continue
		}
		posts = append(posts, p)
	}

	slices.SortStableFunc(posts, func(a, b model.Post) int {
		return b.PublishedAt.Compare(a.PublishedAt)
	})
	return posts, nil
}

// ProjectBySlug はslugが一致するプロジェクトを返す。見つからない場合はnil, nil。
func (s *LocalStore) ProjectBySlug(ctx context.Context, slug string) (*model.Project, error) {
	projects, err := s.Projects(ctx)
	if err != nil {
		return nil, err
	}
	for i := range projects {
		if projects[i].Slug == slug {
			return &projects[i], nil
		}
	}
	return nil, nil
}

// PostBySlug はslugが一致する記事を返す。見つからない場合はnil, nil。
func (s *LocalStore) PostBySlug(ctx context.Context, slug string) (*model.Post, error) {
	posts, err := s.Posts(ctx)
	if err != nil {
		return nil, err
	}
	for i := range posts {
		if posts[i].Slug == slug {
			return &posts[i], nil
		}
	}
	return nil, nil
}

// ProjectsByCategory はカテゴリが一致するプロジェクトを日付の降順で返す。
func (s *LocalStore) ProjectsByCategory(ctx context.Context, category string) ([]model.Project, error) {
	projects, err := s.Projects(ctx)
	if err != nil {
		return nil, err
	}
	filtered := make([]model.Project, 0, len(projects))
	for _, p := range projects {
		if p.Category == category {
			filtered = append(filtered, p)
		}
	}
	return filtered, nil
}

// FeaturedPosts はfeaturedが真の記事を公開日の降順で返す。
func (s *LocalStore) FeaturedPosts(ctx context.Context) ([]model.Post, error) {
	posts, err := s.Posts(ctx)
	if err != nil {
		return nil, err
	}
	filtered := make([]model.Post, 0, len(posts))
	for _, p := range posts {
		if p.Featured {
			filtered = append(filtered, p)
		}
	}
	return filtered, nil
}

// contentFile は読み込んだmarkdownファイル1件。
type contentFile struct {
	path string
	name string // 拡張子を除いたファイル名
	raw  []byte
}

// readDir はサブディレクトリ内の .md ファイルを読み込む。
func (s *LocalStore) readDir(ctx context.Context, dir string) ([]contentFile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := fs.ReadDir(s.fsys, dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("コンテンツディレクトリの読み込みに失敗しました (%s): %w", dir, err)
	}

	files := make([]contentFile, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".md") {
			continue
		}
		p := path.Join(dir, e.Name())
		raw, err := fs.ReadFile(s.fsys, p)
		if err != nil {
			s.logger.Warn("skipping unreadable content file",
				slog.String("path", p),
				slog.String("error", err.Error()),
			)
			continue
		}
		files = append(files, contentFile{
			path: p,
			name: strings.TrimSuffix(e.Name(), ".md"),
			raw:  raw,
		})
	}
	return files, nil
}

func (s *LocalStore) buildProject(f contentFile) (model.Project, error) {
	fm, body, err := parseFrontMatter(f.raw)
	if err != nil {
		return model.Project{}, err
	}
	htmlBody, err := s.renderer.Render(body)
	if err != nil {
		return model.Project{}, err
	}

	slug := cmpOr(fm.Slug, f.name)
	p := model.Project{
		ID:       projectsDir + "/" + f.name,
		Source:   model.SourceLocal,
		Title:    cmpOr(fm.Title, f.name),
		Slug:     slug,
		Category: cmpOr(fm.Category, model.ProjectCategoryPersonal),
		Summary:  cmpOr(fm.Summary, fm.Description),
		Body:     model.HTMLBody(htmlBody),
		Tags:     tagsOrEmpty(fm.Tags),
		Role:     fm.Role,
		Date:     s.resolveDate(f.path, fm.Date),
		Links: model.ProjectLinks{
			Demo: cmpOr(fm.Demo, fm.DemoURL),
			Repo: cmpOr(fm.Repo, fm.RepoURL, fm.GitHub),
		},
		CoverImage:  localImage(fm.CoverImage, fm.Title),
		ReadingTime: ReadingTime(body),
		Featured:    fm.Featured,
	}
	return p, nil
}

func (s *LocalStore) buildPost(f contentFile) (model.Post, error) {
	fm, body, err := parseFrontMatter(f.raw)
	if err != nil {
		return model.Post{}, err
	}
	htmlBody, err := s.renderer.Render(body)
	if err != nil {
		return model.Post{}, err
	}

	excerpt := cmpOr(fm.Excerpt, fm.Description)
	if excerpt == "" {
		excerpt = excerptFrom(PlainText(htmlBody))
	}

	p := model.Post{
		ID:          postsDir + "/" + f.name,
		Source:      model.SourceLocal,
		Title:       cmpOr(fm.Title, f.name),
		Slug:        cmpOr(fm.Slug, f.name),
		Excerpt:     excerpt,
		Body:        model.HTMLBody(htmlBody),
		Tags:        tagsOrEmpty(fm.Tags),
		PublishedAt: s.resolveDate(f.path, cmpOr(fm.PublishedAt, fm.Date)),
		ReadingTime: ReadingTime(body),
		Featured:    fm.Featured,
		CoverImage:  localImage(fm.CoverImage, fm.Title),
	}
	return p, nil
}

// resolveDate はfront matterの日付文字列を解釈する。
// 未指定の場合は現在時刻、解釈できない場合はゼロ値（一覧の末尾に並ぶ）とする。
func (s *LocalStore) resolveDate(filePath, value string) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return s.now().UTC()
	}
	if t, ok := parseDate(value); ok {
		return t
	}
	s.logger.Warn("unparseable content date",
		slog.String("path", filePath),
		slog.String("value", value),
	)
	return time.Time{}
}

func parseDate(value string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

func tagsOrEmpty(tags stringList) []string {
	if len(tags) == 0 {
		return []string{}
	}
	return []string(tags)
}

// localImage はfront matterの画像パスをImageに変換する。未指定の場合はnil。
func localImage(src, alt string) *model.Image {
	if strings.TrimSpace(src) == "" {
		return nil
	}
	return &model.Image{URL: src, Alt: alt}
}
