package cover

import (
	"sort"
	"strings"
	"unicode"
)

const maxKeywords = 4

var stopwords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "with": {}, "from": {}, "into": {}, "your": {},
	"this": {}, "that": {}, "these": {}, "those": {}, "about": {}, "learn": {},
	"learning": {}, "course": {}, "courses": {}, "introduction": {}, "intro": {},
	"basics": {}, "basic": {}, "beginner": {}, "beginners": {}, "complete": {},
	"guide": {}, "master": {}, "using": {}, "how": {}, "what": {}, "will": {},
	"you": {}, "our": {}, "are": {}, "all": {}, "more": {}, "step": {}, "steps": {},
	"lesson": {}, "lessons": {}, "module": {}, "modules": {}, "part": {}, "class": {},
	"students": {}, "student": {}, "understand": {}, "understanding": {}, "build": {},
	"building": {}, "fundamentals": {}, "essentials": {}, "advanced": {}, "practical": {},
	"everything": {}, "need": {}, "know": {}, "their": {}, "they": {}, "them": {},
	"which": {}, "while": {}, "where": {}, "when": {}, "also": {}, "than": {}, "then": {},
	"just": {}, "like": {}, "over": {}, "under": {}, "through": {}, "within": {},
}

var technicalTerms = map[string]struct{}{
	"python": {}, "javascript": {}, "typescript": {}, "react": {}, "java": {},
	"golang": {}, "rust": {}, "kotlin": {}, "swift": {}, "flutter": {}, "docker": {},
	"kubernetes": {}, "aws": {}, "azure": {}, "sql": {}, "html": {}, "css": {},
	"api": {}, "linux": {}, "security": {}, "cloud": {}, "data": {}, "network": {},
	"blockchain": {}, "figma": {}, "excel": {}, "nodejs": {}, "android": {},
	"devops": {}, "firewall": {}, "encryption": {}, "pandas": {}, "tensorflow": {},
	"pytorch": {}, "analytics": {}, "marketing": {}, "design": {}, "finance": {},
	"algorithms": {}, "database": {}, "backend": {}, "frontend": {}, "microservices": {},
}

// ExtractKeywords returns up to four salient tokens from the course text,
// technical vocabulary first and longer words before shorter ones.
func ExtractKeywords(title, description string) []string {
	type candidate struct {
		word      string
		technical bool
	}
	seen := make(map[string]struct{})
	var picked []candidate
	for _, raw := range strings.Fields(foldText(title + " " + description)) {
		word := strings.Map(func(r rune) rune {
			if unicode.IsLetter(r) {
				return r
			}
			return -1
		}, raw)
		if len([]rune(word)) < 3 {
			continue
		}
		if _, stop := stopwords[word]; stop {
			continue
		}
		if _, dup := seen[word]; dup {
			continue
		}
		_, technical := technicalTerms[word]
		if !technical && len([]rune(word)) <= 4 {
			continue
		}
		seen[word] = struct{}{}
		picked = append(picked, candidate{word: word, technical: technical})
	}
	sort.SliceStable(picked, func(i, j int) bool {
		if picked[i].technical != picked[j].technical {
			return picked[i].technical
		}
		return len([]rune(picked[i].word)) > len([]rune(picked[j].word))
	})
	if len(picked) > maxKeywords {
		picked = picked[:maxKeywords]
	}
	out := make([]string, 0, len(picked))
	for _, c := range picked {
		out = append(out, c.word)
	}
	return out
}
