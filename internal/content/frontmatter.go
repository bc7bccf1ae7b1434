package content

import (
	"bytes"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

var frontMatterDelim = []byte("---")

// frontMatter はmarkdownファイル先頭のYAMLメタデータ。
// プロジェクトと記事で共通のキーを1つの構造体で受ける。
// 日付はYAMLのtimestamp解決に任せず、元の文字列のまま受け取る。
type frontMatter struct {
	Title       string     `yaml:"title"`
	Slug        string     `yaml:"slug"`
	Category    string     `yaml:"category"`
	Summary     string     `yaml:"summary"`
	Description string     `yaml:"description"`
	Excerpt     string     `yaml:"excerpt"`
	Tags        stringList `yaml:"tags"`
	Role        string     `yaml:"role"`
	Date        string     `yaml:"date"`
	PublishedAt string     `yaml:"publishedAt"`
	Featured    bool       `yaml:"featured"`
	Demo        string     `yaml:"demo"`
	DemoURL     string     `yaml:"demoUrl"`
	Repo        string     `yaml:"repo"`
	RepoURL     string     `yaml:"repoUrl"`
	GitHub      string     `yaml:"github"`
	CoverImage  string     `yaml:"coverImage"`
}

// stringList はYAMLのシーケンスと単一スカラーの両方を受け付ける文字列リスト。
// "tags: go" と "tags: [go, web]" のどちらも許容する。
type stringList []string

// UnmarshalYAML はyaml.Unmarshalerを実装する。
func (l *stringList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		if v := strings.TrimSpace(node.Value); v != "" {
			*l = stringList{v}
		}
		return nil
	case yaml.SequenceNode:
		var items []string
		if err := node.Decode(&items); err != nil {
			return err
		}
		*l = items
		return nil
	default:
		return fmt.Errorf("tagsはリストまたは文字列で指定してください (line %d)", node.Line)
	}
}

// parseFrontMatter はファイル内容をメタデータと本文に分割する。
// 先頭行が "---" でない場合はメタデータなしとして全体を本文とする。
func parseFrontMatter(raw []byte) (frontMatter, string, error) {
	var fm frontMatter

	raw = bytes.TrimPrefix(raw, []byte("\uFEFF"))
	normalized := bytes.ReplaceAll(raw, []byte("\r\n"), []byte("\n"))

	if !bytes.HasPrefix(normalized, frontMatterDelim) {
		return fm, string(normalized), nil
	}

	firstNL := bytes.IndexByte(normalized, '\n')
	if firstNL < 0 || len(bytes.TrimSpace(normalized[:firstNL])) != len(frontMatterDelim) {
		return fm, string(normalized), nil
	}

	rest := normalized[firstNL+1:]
	end := findClosingDelim(rest)
	if end < 0 {
		return fm, "", fmt.Errorf("front matterの終端 (---) が見つかりません")
	}

	meta := rest[:end]
	body := rest[end:]
	// 閉じ区切り行を読み飛ばす
	if nl := bytes.IndexByte(body, '\n'); nl >= 0 {
		body = body[nl+1:]
	} else {
		body = nil
	}

	if len(bytes.TrimSpace(meta)) > 0 {
		if err := yaml.Unmarshal(meta, &fm); err != nil {
			return fm, "", fmt.Errorf("front matterの解析に失敗しました: %w", err)
		}
	}

	return fm, string(body), nil
}

// findClosingDelim は "---" だけの行の開始オフセットを返す。見つからない場合は-1。
func findClosingDelim(b []byte) int {
	offset := 0
	for offset <= len(b) {
		line := b[offset:]
		nl := bytes.IndexByte(line, '\n')
		if nl >= 0 {
			line = line[:nl]
		}
		if bytes.Equal(bytes.TrimRight(line, " \t"), frontMatterDelim) {
			return offset
		}
		if nl < 0 {
			return -1
		}
		offset += nl + 1
	}
	return -1
}
