package sanity

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/hitoshi/portfolio/internal/model"
)

// imageCDNBase は画像アセットの配信ベースURL。
const imageCDNBase = "https://cdn.sanity.io/images"

type slugField struct {
	Current string `json:"current"`
}

type assetRef struct {
	Ref string `json:"_ref"`
	URL string `json:"url"`
}

type imageDoc struct {
	Asset   *assetRef `json:"asset"`
	Alt     string    `json:"alt"`
	Caption string    `json:"caption"`
}

type linksDoc struct {
	Demo string `json:"demo"`
	Repo string `json:"repo"`
}

// flexString は文字列または数値で保存されたフィールドを文字列として受ける。
type flexString string

// UnmarshalJSON はjson.Unmarshalerを実装する。
func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	n, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return fmt.Errorf("readingTimeは文字列か数値である必要があります: %s", b)
	}
	*f = flexString(fmt.Sprintf("%s min read", strconv.FormatFloat(n, 'f', -1, 64)))
	return nil
}

type projectDoc struct {
	ID          string          `json:"_id"`
	Title       string          `json:"title"`
	Slug        slugField       `json:"slug"`
	Category    string          `json:"category"`
	Summary     string          `json:"summary"`
	Body        json.RawMessage `json:"body"`
	Tags        []string        `json:"tags"`
	Role        string          `json:"role"`
	Date        string          `json:"date"`
	Links       *linksDoc       `json:"links"`
	CoverImage  *imageDoc       `json:"coverImage"`
	Gallery     []imageDoc      `json:"gallery"`
	ReadingTime flexString      `json:"readingTime"`
	Featured    bool            `json:"featured"`
}

type postDoc struct {
	ID          string          `json:"_id"`
	Title       string          `json:"title"`
	Slug        slugField       `json:"slug"`
	Excerpt     string          `json:"excerpt"`
	Body        json.RawMessage `json:"body"`
	Tags        []string        `json:"tags"`
	PublishedAt string          `json:"publishedAt"`
	ReadingTime flexString      `json:"readingTime"`
	Featured    bool            `json:"featured"`
	CoverImage  *imageDoc       `json:"coverImage"`
}

type profileDoc struct {
	ID          string        `json:"_id"`
	Name        string        `json:"name"`
	Headline    string        `json:"headline"`
	Location    string        `json:"location"`
	BioFormal   string        `json:"bio_formal"`
	EmailPublic string        `json:"email_public"`
	Socials     model.Socials `json:"socials"`
	ResumeURL   string        `json:"resume_url"`
	Avatar      *imageDoc     `json:"avatar"`
	Skills      []string      `json:"skills"`
	Newsletter  *struct {
		Provider    string `json:"provider"`
		EmbedURL    string `json:"embedUrl"`
		Description string `json:"description"`
	} `json:"newsletter"`
}

func (c *Client) toProjects(docs []projectDoc) []model.Project {
	projects := make([]model.Project, 0, len(docs))
	for _, d := range docs {
		projects = append(projects, c.toProject(d))
	}
	return projects
}

func (c *Client) toProject(d projectDoc) model.Project {
	p := model.Project{
		ID:          d.ID,
		Source:      model.SourceRemote,
		Title:       d.Title,
		Slug:        d.Slug.Current,
		Category:    d.Category,
		Summary:     d.Summary,
		Body:        model.PortableTextBody(blocksOrEmpty(d.Body)),
		Tags:        tagsOrEmpty(d.Tags),
		Role:        d.Role,
		Date:        parseTime(d.Date),
		CoverImage:  c.toImage(d.CoverImage),
		ReadingTime: string(d.ReadingTime),
		Featured:    d.Featured,
	}
	if p.Category == "" {
		p.Category = model.ProjectCategoryPersonal
	}
	if d.Links != nil {
		p.Links = model.ProjectLinks{Demo: d.Links.Demo, Repo: d.Links.Repo}
	}
	for i := range d.Gallery {
		if img := c.toImage(&d.Gallery[i]); img != nil {
			p.Gallery = append(p.Gallery, *img)
		}
	}
	return p
}

func (c *Client) toPosts(docs []postDoc) []model.Post {
	posts := make([]model.Post, 0, len(docs))
	for _, d := range docs {
		posts = append(posts, c.toPost(d))
	}
	return posts
}

func (c *Client) toPost(d postDoc) model.Post {
	return model.Post{
		ID:          d.ID,
		Source:      model.SourceRemote,
		Title:       d.Title,
		Slug:        d.Slug.Current,
		Excerpt:     d.Excerpt,
		Body:        model.PortableTextBody(blocksOrEmpty(d.Body)),
		Tags:        tagsOrEmpty(d.Tags),
		PublishedAt: parseTime(d.PublishedAt),
		ReadingTime: string(d.ReadingTime),
		Featured:    d.Featured,
		CoverImage:  c.toImage(d.CoverImage),
	}
}

func (c *Client) toProfile(d profileDoc) model.Profile {
	p := model.Profile{
		Source:      model.SourceRemote,
		Name:        d.Name,
		Headline:    d.Headline,
		Location:    d.Location,
		BioFormal:   d.BioFormal,
		EmailPublic: d.EmailPublic,
		Socials:     d.Socials,
		ResumeURL:   d.ResumeURL,
		Avatar:      c.toImage(d.Avatar),
		Skills:      d.Skills,
	}
	if d.Newsletter != nil {
		p.Newsletter = model.Newsletter{
			Provider:    d.Newsletter.Provider,
			EmbedURL:    d.Newsletter.EmbedURL,
			Description: d.Newsletter.Description,
		}
	}
	return p
}

func (c *Client) toImage(d *imageDoc) *model.Image {
	if d == nil || d.Asset == nil {
		return nil
	}
	img := &model.Image{
		AssetRef: d.Asset.Ref,
		Alt:      d.Alt,
		Caption:  d.Caption,
		URL:      d.Asset.URL,
	}
	if img.URL == "" {
		img.URL = ImageURL(c.cfg.ProjectID, c.cfg.Dataset, d.Asset.Ref)
	}
	if img.URL == "" && img.AssetRef == "" {
		return nil
	}
	return img
}

// ImageURL は画像アセット参照（image-<id>-<幅>x<高さ>-<拡張子>）をCDNのURLに変換する。
// 形式が一致しない場合は空文字列を返す。
func ImageURL(projectID, dataset, ref string) string {
	if !strings.HasPrefix(ref, "image-") {
		return ""
	}
	parts := strings.Split(strings.TrimPrefix(ref, "image-"), "-")
	if len(parts) < 3 {
		return ""
	}
	ext := parts[len(parts)-1]
	dims := parts[len(parts)-2]
	id := strings.Join(parts[:len(parts)-2], "-")
	if id == "" || ext == "" || !strings.Contains(dims, "x") {
		return ""
	}
	return fmt.Sprintf("%s/%s/%s/%s-%s.%s", imageCDNBase, projectID, dataset, id, dims, ext)
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

func tagsOrEmpty(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}

func blocksOrEmpty(raw json.RawMessage) json.RawMessage {
	if len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil
	}
	return raw
}
