// Package util provides content hashing and markdown front matter helpers.
package util

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/ast"
	"github.com/gomarkdown/markdown/parser"
	"github.com/mmarkdown/mmark/v2/mast"
)

var ErrNoFrontMatter = errors.New("invalid front matter format")

const frontMatterDelimiter = "%%%"

// FrontMatter is the mmark title block of a markdown document.
type FrontMatter struct {
	*mast.TitleData

	// Bytes of the document taken by the block, delimiters included.
	Consumed int
}

func ContentHash(content []byte) string {
	hash := sha256.Sum256(content)
	return hex.EncodeToString(hash[:])
}

func ContentHashString(content string) string {
	return ContentHash([]byte(content))
}

// GetFrontMatter decodes a leading %%% TOML block.
func GetFrontMatter(md []byte) (*FrontMatter, error) {
	md = markdown.NormalizeNewlines(md)
	md = bytes.TrimLeft(md, "\n \t\r")

	delimiter := []byte(frontMatterDelimiter)
	if len(md) < 2*len(delimiter) || !bytes.HasPrefix(md, delimiter) {
		return nil, ErrNoFrontMatter
	}

	second := bytes.Index(md[len(delimiter):], delimiter)
	if second == -1 {
		return nil, ErrNoFrontMatter
	}

	end := second + 2*len(delimiter) + 1
	if end > len(md) {
		return nil, ErrNoFrontMatter
	}

	block := md[len(delimiter) : end-len(delimiter)-1]
	info := &FrontMatter{TitleData: &mast.TitleData{}}
	if _, err := toml.Decode(string(block), info.TitleData); err != nil {
		return nil, fmt.Errorf("failed to decode front matter: %w", err)
	}

	if info.Language == "" {
		info.Language = "en"
	}
	info.Consumed = end

	return info, nil
}

// SuggestTitle returns the front matter title of a markdown document, or the
// text of its first heading, or "".
func SuggestTitle(md []byte) string {
	if info, err := GetFrontMatter(md); err == nil {
		if title := strings.TrimSpace(info.Title); title != "" {
			return title
		}
		md = bytes.TrimLeft(markdown.NormalizeNewlines(md), "\n \t\r")[info.Consumed-1:]
	}

	doc := markdown.Parse(md, parser.NewWithExtensions(parser.CommonExtensions))

	var title string
	ast.WalkFunc(doc, func(node ast.Node, entering bool) ast.WalkStatus {
		heading, ok := node.(*ast.Heading)
		if !ok || !entering {
			return ast.GoToNext
		}
		title = strings.TrimSpace(headingText(heading))
		if title == "" {
			return ast.GoToNext
		}
		return ast.Terminate
	})

	return title
}

func headingText(node ast.Node) string {
	var b strings.Builder
	ast.WalkFunc(node, func(n ast.Node, entering bool) ast.WalkStatus {
		if !entering {
			return ast.GoToNext
		}
		switch leaf := n.(type) {
		case *ast.Text:
			b.Write(leaf.Literal)
		case *ast.Code:
			b.Write(leaf.Literal)
		}
		return ast.GoToNext
	})
	return b.String()
}
