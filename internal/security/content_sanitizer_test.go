package security

import (
	"strings"
	"testing"
)

type sanitizeCase struct {
	name   string
	input  string
	want   []string
	absent []string
}

func runSanitizeCases(t *testing.T, cases []sanitizeCase) {
	t.Helper()
	sanitizer := NewArticleSanitizer()

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			got := sanitizer.Sanitize(tt.input)
			for _, want := range tt.want {
				if !strings.Contains(got, want) {
					t.Errorf("Sanitize(%q) = %q, expected to contain %q", tt.input, got, want)
				}
			}
			for _, absent := range tt.absent {
				if strings.Contains(strings.ToLower(got), strings.ToLower(absent)) {
					t.Errorf("Sanitize(%q) = %q, should NOT contain %q", tt.input, got, absent)
				}
			}
		})
	}
}

// TestSanitize_ArticleMarkup は記事Markdownから生成される要素が通過することを検証する。
func TestSanitize_ArticleMarkup(t *testing.T) {
	runSanitizeCases(t, []sanitizeCase{
		{
			name:  "見出しと段落",
			input: "<h2>Why calm tools</h2><p>Less <strong>noise</strong>, more <em>focus</em>.</p>",
			want:  []string{"<h2>Why calm tools</h2>", "<strong>noise</strong>", "<em>focus</em>"},
		},
		{
			name:  "リストと引用",
			input: "<ol start=\"3\"><li>ship</li></ol><blockquote><p>quiet</p></blockquote>",
			want:  []string{`<ol start="3">`, "<li>ship</li>", "<blockquote>"},
		},
		{
			name:  "GFMテーブル",
			input: `<table><thead><tr><th align="center">Stack</th></tr></thead><tbody><tr><td>Go</td></tr></tbody></table>`,
			want:  []string{"<table>", `<th align="center">`, "<td>Go</td>"},
		},
		{
			name:  "コードブロックの言語クラス",
			input: `<pre><code class="language-go">func main() {}</code></pre>`,
			want:  []string{`<code class="language-go">`},
		},
		{
			name:  "打ち消し線",
			input: "<p><del>draft</del></p>",
			want:  []string{"<del>draft</del>"},
		},
		{
			name:  "タスクリスト",
			input: `<ul><li><input checked="" disabled="" type="checkbox"> done</li></ul>`,
			want:  []string{`type="checkbox"`, "disabled"},
		},
		{
			name:  "httpsの画像とalt",
			input: `<img src="https://cdn.example.com/cover.png" alt="cover art">`,
			want:  []string{`src="https://cdn.example.com/cover.png"`, `alt="cover art"`},
		},
		{
			name:  "相対パスの画像",
			input: `<img src="/images/calm-notes.png" alt="">`,
			want:  []string{`src="/images/calm-notes.png"`},
		},
		{
			name:  "mailtoリンク",
			input: `<a href="mailto:hello@example.com">say hi</a>`,
			want:  []string{"mailto:hello@example.com"},
		},
	})
}

// TestSanitize_UnsafeMarkup は危険な要素と属性が除去されることを検証する。
func TestSanitize_UnsafeMarkup(t *testing.T) {
	runSanitizeCases(t, []sanitizeCase{
		{
			name:   "script",
			input:  `<p>before</p><script>alert('xss')</script><p>after</p>`,
			want:   []string{"<p>before</p>", "<p>after</p>"},
			absent: []string{"<script", "alert"},
		},
		{
			name:   "iframe",
			input:  `<p>embed</p><iframe src="https://evil.example"></iframe>`,
			want:   []string{"<p>embed</p>"},
			absent: []string{"<iframe", "evil.example"},
		},
		{
			name:   "styleタグとstyle属性",
			input:  `<style>body{display:none}</style><p style="color:red">text</p>`,
			want:   []string{"<p>text</p>"},
			absent: []string{"<style", "display:none", "style="},
		},
		{
			name:   "divとspanは中身だけ残る",
			input:  `<div><span>inner</span></div>`,
			want:   []string{"inner"},
			absent: []string{"<div", "<span"},
		},
		{
			name:   "on*イベント属性",
			input:  `<p onclick="alert(1)" OnMouseOver="alert(2)">hover</p>`,
			want:   []string{"hover"},
			absent: []string{"onclick", "onmouseover", "alert"},
		},
		{
			name:   "javascriptスキームのリンク",
			input:  `<a href="javascript:alert('xss')">click</a>`,
			want:   []string{"click"},
			absent: []string{"javascript:"},
		},
		{
			name:   "data URIのリンク",
			input:  `<a href="data:text/html,<script>alert(1)</script>">data</a>`,
			absent: []string{"data:text/html"},
		},
		{
			name:   "httpの画像",
			input:  `<img src="http://insecure.example/a.png" alt="a">`,
			absent: []string{"http://insecure.example"},
		},
		{
			name:   "img onerror",
			input:  `<img src="https://cdn.example.com/x.png" onerror="alert(1)">`,
			absent: []string{"onerror", "alert"},
		},
		{
			name:   "svg onload",
			input:  `<svg onload="alert(1)"></svg>`,
			absent: []string{"<svg", "onload"},
		},
		{
			name:   "code以外のclassと言語以外のclass",
			input:  `<p class="lead"><code class="evil">x</code></p>`,
			want:   []string{"x"},
			absent: []string{"lead", "evil"},
		},
	})
}

// TestSanitize_ExternalLinks は外部リンクだけが新しいタブで開くことを検証する。
func TestSanitize_ExternalLinks(t *testing.T) {
	sanitizer := NewArticleSanitizer()

	got := sanitizer.Sanitize(`<a href="https://github.com/example" target="_self" rel="nofollow">repo</a>`)
	for _, want := range []string{`target="_blank"`, "noopener", "noreferrer", "repo"} {
		if !strings.Contains(got, want) {
			t.Errorf("external link = %q, expected to contain %q", got, want)
		}
	}
	if strings.Contains(got, `target="_self"`) {
		t.Errorf("external link kept target=_self: %q", got)
	}

	got = sanitizer.Sanitize(`<a href="/blog/staying-human">previous post</a>`)
	if !strings.Contains(got, `href="/blog/staying-human"`) {
		t.Errorf("relative link href lost: %q", got)
	}
	if strings.Contains(got, `target="_blank"`) {
		t.Errorf("relative link should not open a new tab: %q", got)
	}
}

func TestSanitize_EmptyAndPlainText(t *testing.T) {
	sanitizer := NewArticleSanitizer()

	if got := sanitizer.Sanitize(""); got != "" {
		t.Errorf("Sanitize(\"\") = %q, want empty", got)
	}
	if got := sanitizer.Sanitize("just words"); got != "just words" {
		t.Errorf("Sanitize(plain) = %q, want unchanged", got)
	}
}

// TestSanitize_Idempotent はサニタイズ済みHTMLを再度通しても変化しないことを検証する。
func TestSanitize_Idempotent(t *testing.T) {
	sanitizer := NewArticleSanitizer()
	input := `<h2>Notes</h2><p>See <a href="https://example.com">this</a>.</p><script>x()</script>`

	once := sanitizer.Sanitize(input)
	twice := sanitizer.Sanitize(once)
	if once != twice {
		t.Errorf("Sanitize is not idempotent:\n once = %q\ntwice = %q", once, twice)
	}
}

func TestSanitizerInterface(t *testing.T) {
	var _ Sanitizer = NewArticleSanitizer()
}
