package recipe

import (
	"embed"
	"path"
	"regexp"
	"strings"

	"github.com/agentic-research/vaultpatch/internal/frontmatter"
	"github.com/agentic-research/vaultpatch/internal/patch"
	"github.com/agentic-research/vaultpatch/internal/rewrite"
	"github.com/agentic-research/vaultpatch/internal/settings"
	"github.com/agentic-research/vaultpatch/internal/span"
	"github.com/agentic-research/vaultpatch/internal/vault"
)

// Plugin bundles the built-in recipes patch.
var (
	QuizBundle      = path.Join(vault.ConfigDir, "plugins", "quiz-sp2", "main.js")
	PlannerBundle   = path.Join(vault.ConfigDir, "plugins", "learning-strategy-planner", "main.js")
	HanziQuizBundle = path.Join(vault.ConfigDir, "plugins", "hanzi-quiz-backup-mobile", "main.js")
)

//go:embed snippets
var snippetFS embed.FS

func snippet(name string) string {
	b, err := snippetFS.ReadFile("snippets/" + name)
	if err != nil {
		panic(err)
	}
	return string(b)
}

// Builtins returns a registry with every built-in recipe.
func Builtins() *Registry {
	return NewRegistry(
		mobileTouch(),
		galaxyUltra(),
		sPen(),
		removeDuplicateNoteButton(),
		removeDuplicateImageSection(),
		fixSyntaxError(),
		replaceNoteSection(),
		confirmModal(),
		hanziQuestionListTemplate(),
		hanziDashboardTemplate(),
		hanziCompactFeedback(),
		hanziTrimStaleBlock(),
		CorePlugins{Info: Info{ID: "core-plugins", About: "rewrite core-plugins.json as the list of enabled plugins"}},
		ankiTheme(),
		FrontMatter{
			Info:  Info{ID: "question-frontmatter", About: "add front matter to question notes under " + frontmatter.DefaultRoot},
			Batch: frontmatter.DefaultBatch(),
		},
	)
}

func mobileTouch() TextRecipe {
	return TextRecipe{
		Info:   Info{ID: "quiz-mobile-touch", About: "add touch handling to the quiz next-question button"},
		Target: QuizBundle,
		Steps: []patch.Step{
			patch.RegexFunc{
				Re: regexp.MustCompile(`(nextBtn\.style\.fontWeight = 'bold';)(\r?\n)([ \t]+)(nextBtn\.addEventListener\('click', \(\) => \{)`),
				Func: func(src string, loc []int) (string, bool) {
					nl, indent := src[loc[4]:loc[5]], src[loc[6]:loc[7]]
					return src[loc[2]:loc[3]] + nl +
						indent + "nextBtn.style.touchAction = 'manipulation';" + nl +
						indent + "nextBtn.style.webkitTapHighlightColor = 'rgba(0,0,0,0.1)';" + nl + nl +
						indent + src[loc[8]:loc[9]], true
				},
				Optional: true,
				Note:     "next button: touch-action and tap highlight",
			},
		},
	}
}

func galaxyUltra() TextRecipe {
	return TextRecipe{
		Info:   Info{ID: "quiz-galaxy-ultra", About: "tune the quiz plugin for large Android screens"},
		Target: QuizBundle,
		Steps: []patch.Step{
			patch.Literal{
				Old:      "const isMobile = this.app.isMobile || window.innerWidth <= 768;",
				New:      "const isMobile = this.app.isMobile || window.innerWidth <= 1024 || /Android|webOS|iPhone|iPad/i.test(navigator.userAgent);",
				All:      true,
				Optional: true,
				Note:     "mobile detection: 768px to 1024px plus user agent",
			},
			patch.Literal{
				Old:      "const swipeThreshold = 50;",
				New:      "const swipeThreshold = 60; // Galaxy Ultra25: 큰 화면용 조정",
				All:      true,
				Optional: true,
				Note:     "swipe threshold 50px to 60px",
			},
			patch.RegexFunc{
				Re:       regexp.MustCompile(`font-size: \$\{isMobile \? '(\d+)px' : '[^']+'\}`),
				Func:     func(src string, loc []int) (string, bool) { return rewrite.EnsureMinPx(src, loc, 16) },
				Optional: true,
				Note:     "mobile font size at least 16px",
			},
			patch.RegexFunc{
				Re:       regexp.MustCompile(`min-height: \$\{isMobile \? '(\d+)px' : 'auto'\}`),
				Func:     func(src string, loc []int) (string, bool) { return rewrite.EnsureMinPx(src, loc, 44) },
				Optional: true,
				Note:     "mobile button height at least 44px",
			},
			patch.RegexFunc{
				Re:       regexp.MustCompile(`overflow-y: auto;`),
				Func:     rewrite.AppendUnlessFollowed(" -webkit-overflow-scrolling: touch;", "-webkit-overflow-scrolling"),
				Optional: true,
				Note:     "momentum scrolling",
			},
		},
	}
}

const sPenCall = "\n\n        // S펜 감지\n        detectSPen();"

func sPen() TextRecipe {
	exports := span.Text("module.exports = ")
	return TextRecipe{
		Info:   Info{ID: "quiz-spen", About: "add S Pen detection and the handwriting modal to the quiz plugin"},
		Target: QuizBundle,
		Steps: []patch.Step{
			patch.RegexFunc{
				Re: regexp.MustCompile(`(async onload\(\) \{[\s\S]{0,200}?console\.log\(["'].*?loaded["'].*?\);)`),
				Func: func(src string, loc []int) (string, bool) {
					call := span.WithLineEnding(sPenCall, span.LineEnding(src))
					if strings.Contains(src, call) {
						return "", false
					}
					return src[loc[2]:loc[3]] + call, true
				},
				Limit: 1,
				Note:  "detectSPen() call in onload",
			},
			patch.InsertBefore{
				Anchor:          exports,
				Text:            "\n" + snippet("spen-detect.js") + "\n",
				Unless:          "const detectSPen = ",
				AppendIfMissing: true,
				Note:            "S Pen detection helpers",
			},
			patch.InsertBefore{
				Anchor:          exports,
				Text:            "\n" + snippet("handwriting-modal.js") + "\n\n",
				Unless:          "class HandwritingModal",
				AppendIfMissing: true,
				Note:            "HandwritingModal class",
			},
			patch.RegexFunc{
				Re: regexp.MustCompile("\\s+</style>`;\\s+"),
				Func: func(src string, loc []int) (string, bool) {
					if strings.Contains(src, "/* S펜 최적화 CSS */") {
						return "", false
					}
					css := span.WithLineEnding("\n"+snippet("spen.css"), span.LineEnding(src))
					return css + src[loc[0]:loc[1]], true
				},
				Limit:    1,
				Optional: true,
				Note:     "S Pen CSS",
			},
		},
	}
}

func removeDuplicateNoteButton() TextRecipe {
	return TextRecipe{
		Info:   Info{ID: "quiz-remove-duplicate-note-button", About: "remove the second note button block from the quiz feedback view"},
		Target: QuizBundle,
		Steps: []patch.Step{
			patch.Delete{
				Locator: span.Markers{
					Start:        span.Text("            // 노트보기 버튼 (노트 또는 노트 이미지가 있을 때)"),
					End:          span.Text("        // 버튼 컨테이너를 먼저 생성"),
					IncludeStart: true,
					WholeLines:   true,
				},
			},
		},
	}
}

func removeDuplicateImageSection() TextRecipe {
	return TextRecipe{
		Info:   Info{ID: "planner-remove-duplicate-image-section", About: "remove the second copy of the question image section from the planner form"},
		Target: PlannerBundle,
		Backup: true,
		Steps: []patch.Step{
			patch.Delete{
				Locator: span.Markers{
					Start:        span.Nth(span.Pattern(regexp.MustCompile(`// 문제 이미지[^\n]*\n[^\n]*const imageGroup = form\.createDiv`)), 2),
					End:          span.Text("updateHintImagePreview();"),
					IncludeStart: true,
					IncludeEnd:   true,
					WholeLines:   true,
				},
			},
		},
	}
}

func fixSyntaxError() TextRecipe {
	return TextRecipe{
		Info:   Info{ID: "quiz-fix-syntax-error", About: "delete the stray block at lines 2778-2804 of the quiz bundle"},
		Target: QuizBundle,
		Backup: true,
		Steps: []patch.Step{
			patch.Delete{Locator: span.LineRange{Start: 2778, End: 2804}},
		},
	}
}

func replaceNoteSection() TextRecipe {
	return TextRecipe{
		Info:   Info{ID: "quiz-replace-note-section", About: "replace the inline quiz note with a toggle button"},
		Target: QuizBundle,
		Steps: []patch.Step{
			patch.Literal{
				Old:  strings.TrimSuffix(snippet("note-section.old.js"), "\n"),
				New:  strings.TrimSuffix(snippet("note-section.new.js"), "\n"),
				All:  true,
				Note: "note section now toggles",
			},
		},
	}
}

func confirmModal() TextRecipe {
	return TextRecipe{
		Info:   Info{ID: "quiz-confirm-modal", About: "turn confirm() guards in the quiz plugin into ConfirmModal callbacks"},
		Target: QuizBundle,
		Steps:  []patch.Step{patch.ConfirmModal{}},
	}
}

func hanziQuestionListTemplate() TextRecipe {
	return TextRecipe{
		Info:   Info{ID: "hanzi-quiz-question-list-template", About: "regenerate the per-folder question list template of the hanzi quiz"},
		Target: HanziQuizBundle,
		Steps: []patch.Step{
			patch.Splice{
				Locator: span.Markers{
					Start:        span.Text("    async updateQuestionListTemplate(folder) {"),
					End:          span.Text("    async updateBookmarkListTemplate() {"),
					IncludeStart: true,
					WholeLines:   true,
				},
				Replacement: snippet("question-list-template.js"),
				Note:        "updateQuestionListTemplate rewritten",
			},
		},
	}
}

func hanziDashboardTemplate() TextRecipe {
	return TextRecipe{
		Info:   Info{ID: "hanzi-quiz-dashboard-template", About: "regenerate the integrated dashboard template of the hanzi quiz"},
		Target: HanziQuizBundle,
		Steps: []patch.Step{
			patch.Splice{
				Locator: span.Markers{
					Start:        span.Text("async createIntegratedDashboard() {"),
					End:          span.Text("async loadAllQuestions() {"),
					IncludeStart: true,
					WholeLines:   true,
				},
				Replacement: snippet("dashboard-template.js"),
				Note:        "createIntegratedDashboard rewritten",
			},
		},
	}
}

func hanziCompactFeedback() TextRecipe {
	return TextRecipe{
		Info:   Info{ID: "hanzi-quiz-compact-feedback", About: "open dashboard folders via obsidian:// links and shrink the answer feedback overlay"},
		Target: HanziQuizBundle,
		Steps: []patch.Step{
			patch.Literal{
				Old:      strings.TrimSuffix(snippet("dashboard-folders.old.js"), "\n"),
				New:      strings.TrimSuffix(snippet("dashboard-folders.new.js"), "\n"),
				All:      true,
				Optional: true,
				Note:     "folder cards link through obsidian://open",
			},
			patch.Literal{
				Old:      strings.TrimSuffix(snippet("feedback.old.js"), "\n"),
				New:      strings.TrimSuffix(snippet("feedback.new.js"), "\n"),
				All:      true,
				Optional: true,
				Note:     "feedback overlay centred, 500px wide",
			},
		},
	}
}

func hanziTrimStaleBlock() TextRecipe {
	return TextRecipe{
		Info:   Info{ID: "hanzi-quiz-trim-stale-block", About: "delete lines 315-1291 of the hanzi quiz bundle, keeping 1-314 and 1292 onward"},
		Target: HanziQuizBundle,
		Backup: true,
		Steps: []patch.Step{
			patch.Delete{Locator: span.LineRange{Start: 315, End: 1291}},
		},
	}
}

// AnkiSnippet is the CSS snippet the anki theme enables.
const AnkiSnippet = "anki-style-theme"

func ankiTheme() Theme {
	empty := ""
	return Theme{
		Info: Info{ID: "anki-theme", About: "enable the anki-style-theme snippet, fonts and Style Settings defaults"},
		Appearance: settings.Appearance{
			CSSTheme:      &empty,
			Snippets:      []string{AnkiSnippet},
			BaseFontSize:  16,
			TextFont:      "Noto Sans KR, Pretendard, -apple-system, sans-serif",
			MonospaceFont: "D2Coding, Fira Code, Consolas, monospace",
		},
		StyleDefaults: []settings.Pair{
			{Key: AnkiSnippet + "@@color-scheme", Value: "anki-auto"},
			{Key: AnkiSnippet + "@@font-size-base", Value: float64(16)},
			{Key: AnkiSnippet + "@@quiz-card-style", Value: true},
			{Key: AnkiSnippet + "@@mobile-padding", Value: float64(16)},
			{Key: AnkiSnippet + "@@button-min-height", Value: float64(44)},
		},
	}
}
