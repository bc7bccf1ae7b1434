package mail

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// blockElements は前後で改行を入れる要素。
var blockElements = map[atom.Atom]bool{
	atom.P: true, atom.Div: true, atom.Br: true, atom.Hr: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true,
	atom.Ul: true, atom.Ol: true, atom.Li: true, atom.Tr: true,
	atom.Table: true, atom.Section: true, atom.Blockquote: true,
}

// PlainText はHTMLメール本文からテキストパートを生成する。
// ブロック要素は改行で区切り、リンクはURLを括弧書きで残す。
func PlainText(src string) string {
	z := html.NewTokenizer(strings.NewReader(src))

	var (
		b    strings.Builder
		skip int
		href []string
	)

	newline := func() {
		s := b.String()
		if s == "" || strings.HasSuffix(s, "\n") {
			return
		}
		b.WriteString("\n")
	}

	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			return tidy(b.String())
		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			switch tok.DataAtom {
			case atom.Script, atom.Style, atom.Head, atom.Title:
				if tt == html.StartTagToken {
					skip++
				}
				continue
			case atom.A:
				href = append(href, attr(tok, "href"))
			case atom.Li:
				newline()
				b.WriteString("- ")
				continue
			}
			if blockElements[tok.DataAtom] {
				newline()
			}
		case html.EndTagToken:
			tok := z.Token()
			switch tok.DataAtom {
			case atom.Script, atom.Style, atom.Head, atom.Title:
				if skip > 0 {
					skip--
				}
				continue
			case atom.A:
				if n := len(href); n > 0 {
					if u := href[n-1]; u != "" && !strings.HasPrefix(u, "mailto:") {
						b.WriteString(" (" + u + ")")
					}
					href = href[:n-1]
				}
			}
			if blockElements[tok.DataAtom] {
				newline()
			}
		case html.TextToken:
			if skip > 0 {
				continue
			}
			text := strings.Join(strings.Fields(string(z.Text())), " ")
			if text == "" {
				continue
			}
			s := b.String()
			if s != "" && !strings.HasSuffix(s, "\n") && !strings.HasSuffix(s, " ") && !strings.HasSuffix(s, "- ") {
				b.WriteString(" ")
			}
			b.WriteString(text)
		}
	}
}

func attr(tok html.Token, key string) string {
	for _, a := range tok.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// tidy は各行の前後の空白と空行を取り除く。
func tidy(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}
