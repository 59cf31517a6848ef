package nova

import (
	"sort"
	"strings"

	"github.com/termfx/nova/framework"
	"github.com/termfx/nova/internal/intern"
	"github.com/termfx/nova/query"
	"github.com/termfx/nova/resolve"
)

// scoredCandidate pairs a framework.Candidate with its ranking score:
// a case-sensitive exact prefix scores highest, a case-insensitive
// prefix next, and a subsequence match (every prefix rune appears in
// order) lowest — exact > prefix > fuzzy.
type scoredCandidate struct {
	framework.Candidate
	score int
}

const (
	scoreExactPrefix = 300
	scoreCaseFold    = 200
	scoreSubsequence = 100
)

func rankCandidate(prefix, label string) (int, bool) {
	if prefix == "" {
		return 1, true
	}
	if strings.HasPrefix(label, prefix) {
		return scoreExactPrefix - len(label), true
	}
	if strings.HasPrefix(strings.ToLower(label), strings.ToLower(prefix)) {
		return scoreCaseFold - len(label), true
	}
	if isSubsequence(strings.ToLower(prefix), strings.ToLower(label)) {
		return scoreSubsequence - len(label), true
	}
	return 0, false
}

func isSubsequence(needle, haystack string) bool {
	i := 0
	for j := 0; i < len(needle) && j < len(haystack); j++ {
		if needle[i] == haystack[j] {
			i++
		}
	}
	return i == len(needle)
}

// Completions runs completions(FileLoc, prefix): every
// visible scope-chain declaration whose name matches prefix, ranked,
// merged with warm-start workspace symbols and any active framework
// hook's contributions. The candidate list is capped at the memory
// manager's currently published Degraded.CompletionCandidateCap, so the
// handler tightens automatically under pressure.
func (db *Database) Completions(qctx *query.Ctx, file intern.FileId, offset int, prefix string, classpath []string) ([]framework.Candidate, error) {
	fa, err := db.Analyze(qctx, file)
	if err != nil {
		return nil, err
	}
	_, _, ancestors := fa.Tree.TokenAtOffset(offset)
	scope := fa.Builder.ScopeAt(ancestors, fa.FileScope)

	var scored []scoredCandidate
	seen := map[string]bool{}
	for sc := scope; sc != nil; sc = sc.Parent {
		for _, n := range sc.DeclaredNames() {
			label, ok := db.Names.Text(n)
			if !ok || seen[label] {
				continue
			}
			score, ok := rankCandidate(prefix, label)
			if !ok {
				continue
			}
			seen[label] = true
			scored = append(scored, scoredCandidate{
				Candidate: framework.Candidate{Label: label, Kind: kindLabel(sc.Kind)},
				score:     score,
			})
		}
	}

	// Workspace symbols persisted by the previous run: useful until the
	// live index has been rebuilt, invisible once a scope-chain candidate
	// of the same simple name exists.
	for _, row := range db.WarmSymbols {
		label := simpleSymbolName(row.SymbolName)
		if label == "" || seen[label] {
			continue
		}
		score, ok := rankCandidate(prefix, label)
		if !ok {
			continue
		}
		seen[label] = true
		scored = append(scored, scoredCandidate{
			Candidate: framework.Candidate{Label: label, Kind: row.Kind, Detail: row.FilePath},
			score:     score - warmPenalty,
		})
	}

	if db.Framework != nil {
		ctx := framework.CompletionContext{File: file, Offset: offset, Prefix: prefix}
		for _, h := range db.Framework.Active(classpath) {
			for _, c := range h.Completions(ctx) {
				scored = append(scored, scoredCandidate{Candidate: c, score: scoreExactPrefix})
			}
		}
	}

	sort.SliceStable(scored, func(i, j int) bool { return scored[i].score > scored[j].score })
	if cap := db.Memory.Degraded().CompletionCandidateCap; cap > 0 && len(scored) > cap {
		scored = scored[:cap]
	}
	out := make([]framework.Candidate, len(scored))
	for i, s := range scored {
		out[i] = s.Candidate
	}
	return out, nil
}

// warmPenalty ranks a warm-start (possibly stale) symbol below a live
// scope-chain candidate of equal match quality.
const warmPenalty = 50

// simpleSymbolName trims a persisted qualified symbol name down to its
// final segment, the label a completion list shows.
func simpleSymbolName(qn string) string {
	if i := strings.LastIndexByte(qn, '.'); i >= 0 {
		return qn[i+1:]
	}
	return qn
}

func kindLabel(k resolve.ScopeKind) string {
	switch k {
	case resolve.ScopeBlock:
		return "local"
	case resolve.ScopeMethod:
		return "parameter"
	case resolve.ScopeClass:
		return "member"
	case resolve.ScopeFile:
		return "type"
	default:
		return "unknown"
	}
}
