// Package language derives a file's language tag and editor kind from its filename.
package language

import (
	"path"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"

	"github.com/debemdeboas/gisthub/internal/cache"
)

// Language is a tag from a closed set. Anything unrecognised resolves to PlainText.
type Language string

const (
	PlainText  Language = "plaintext"
	Markdown   Language = "markdown"
	Go         Language = "go"
	Python     Language = "python"
	JavaScript Language = "javascript"
	TypeScript Language = "typescript"
	Ruby       Language = "ruby"
	Rust       Language = "rust"
	Java       Language = "java"
	Kotlin     Language = "kotlin"
	Swift      Language = "swift"
	ObjectiveC Language = "objectivec"
	C          Language = "c"
	Cpp        Language = "cpp"
	CSharp     Language = "csharp"
	PHP        Language = "php"
	Shell      Language = "shell"
	SQL        Language = "sql"
	HTML       Language = "html"
	CSS        Language = "css"
	JSON       Language = "json"
	YAML       Language = "yaml"
	TOML       Language = "toml"
	XML        Language = "xml"
	Dockerfile Language = "dockerfile"
	Lua        Language = "lua"
	Dart       Language = "dart"
	Haskell    Language = "haskell"
	Elixir     Language = "elixir"
	Scala      Language = "scala"
)

// Editor is the kind of editor the rendering layer opens for a file.
type Editor int

const (
	CodeEditor Editor = iota
	DocumentEditor
)

func (e Editor) String() string {
	if e == DocumentEditor {
		return "document"
	}
	return "code"
}

var extensions = map[string]Language{
	"md":       Markdown,
	"markdown": Markdown,
	"txt":      PlainText,
	"text":     PlainText,
	"go":       Go,
	"py":       Python,
	"js":       JavaScript,
	"mjs":      JavaScript,
	"cjs":      JavaScript,
	"jsx":      JavaScript,
	"ts":       TypeScript,
	"tsx":      TypeScript,
	"rb":       Ruby,
	"rs":       Rust,
	"java":     Java,
	"kt":       Kotlin,
	"kts":      Kotlin,
	"swift":    Swift,
	"m":        ObjectiveC,
	"c":        C,
	"h":        C,
	"cc":       Cpp,
	"cpp":      Cpp,
	"cxx":      Cpp,
	"hpp":      Cpp,
	"cs":       CSharp,
	"php":      PHP,
	"sh":       Shell,
	"bash":     Shell,
	"zsh":      Shell,
	"sql":      SQL,
	"html":     HTML,
	"htm":      HTML,
	"css":      CSS,
	"json":     JSON,
	"yml":      YAML,
	"yaml":     YAML,
	"toml":     TOML,
	"xml":      XML,
	"lua":      Lua,
	"dart":     Dart,
	"hs":       Haskell,
	"ex":       Elixir,
	"exs":      Elixir,
	"scala":    Scala,
}

// chroma lexer names (lower-cased) that fold into the closed set.
var lexerNames = map[string]Language{
	"go":          Go,
	"python":      Python,
	"python 2":    Python,
	"javascript":  JavaScript,
	"typescript":  TypeScript,
	"ruby":        Ruby,
	"rust":        Rust,
	"java":        Java,
	"kotlin":      Kotlin,
	"swift":       Swift,
	"objective-c": ObjectiveC,
	"c":           C,
	"c++":         Cpp,
	"c#":          CSharp,
	"php":         PHP,
	"bash":        Shell,
	"sql":         SQL,
	"html":        HTML,
	"css":         CSS,
	"json":        JSON,
	"yaml":        YAML,
	"toml":        TOML,
	"xml":         XML,
	"docker":      Dockerfile,
	"lua":         Lua,
	"dart":        Dart,
	"haskell":     Haskell,
	"elixir":      Elixir,
	"scala":       Scala,
	"markdown":    Markdown,
}

// maxResolved bounds the memo; names past it are resolved on every call.
const maxResolved = 1024

var resolved = cache.NewCache[string, Language]()

// Extension returns the lower-cased text after the last dot of the base name,
// or "" when there is none.
func Extension(filename string) string {
	base := path.Base(filename)
	i := strings.LastIndexByte(base, '.')
	if i < 0 || i == len(base)-1 {
		return ""
	}
	return strings.ToLower(base[i+1:])
}

// Resolve maps a filename to its language tag.
func Resolve(filename string) Language {
	if filename == "" {
		return PlainText
	}
	if lang, ok := resolved.Get(filename); ok {
		return lang
	}

	lang := resolve(filename)
	if resolved.Len() < maxResolved {
		resolved.Set(filename, lang)
	}
	return lang
}

func resolve(filename string) Language {
	if lang, ok := extensions[Extension(filename)]; ok {
		return lang
	}

	// Names chroma knows without a table entry, e.g. "Dockerfile" or "go.mod".
	lexer := lexers.Match(path.Base(filename))
	if lexer == nil {
		return PlainText
	}
	if lang, ok := lexerNames[strings.ToLower(lexer.Config().Name)]; ok {
		return lang
	}
	return PlainText
}

// EditorFor reports which editor a filename opens in.
func EditorFor(filename string) Editor {
	if Resolve(filename) == Markdown {
		return DocumentEditor
	}
	return CodeEditor
}

// Known reports whether l is a member of the closed set.
func Known(l Language) bool {
	if l == PlainText || l == Dockerfile {
		return true
	}
	for _, v := range extensions {
		if v == l {
			return true
		}
	}
	return false
}

// Lexer returns the chroma lexer for the tag, coalesced, for the rendering layer.
func (l Language) Lexer() chroma.Lexer {
	lexer := lexers.Get(string(l))
	if lexer == nil || l == PlainText {
		lexer = lexers.Fallback
	}
	return chroma.Coalesce(lexer)
}

func (l Language) String() string {
	return string(l)
}
