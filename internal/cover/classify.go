package cover

import "strings"

// Category is the inferred subject bucket of a course.
type Category string

const (
	CategoryCybersecurity  Category = "cybersecurity"
	CategoryProgramming    Category = "programming"
	CategoryDataScience    Category = "data_science"
	CategoryDesign         Category = "design"
	CategoryBusiness       Category = "business"
	CategoryWebDevelopment Category = "web_development"
	CategoryMobile         Category = "mobile"
	CategoryCloud          Category = "cloud"
	CategoryFinance        Category = "finance"
	CategoryEducation      Category = "education"
	CategoryGeneral        Category = "general"
)

type categoryRule struct {
	category Category
	weight   int
	keywords []string
}

// categoryRules is ordered by priority; earlier rules win ties.
var categoryRules = []categoryRule{
	{CategoryCybersecurity, 10, []string{
		"cybersecurity", "cyber security", "security", "penetration", "pentest", "firewall",
		"hacking", "hacker", "malware", "phishing", "encryption", "cryptography",
		"vulnerability", "forensics", "threat", "intrusion", "ransomware",
	}},
	{CategoryProgramming, 8, []string{
		"programming", "python", "java", "golang", "rust programming", "c++", "c#", "coding",
		"algorithm", "software", "developer", "compiler", "object-oriented", "debugging",
		"data structures",
	}},
	{CategoryDataScience, 8, []string{
		"data science", "machine learning", "deep learning", "artificial intelligence",
		"analytics", "statistics", "pandas", "numpy", "neural network", "big data",
		"data analysis", "visualization", "tensorflow", "pytorch",
	}},
	{CategoryDesign, 7, []string{
		"design", "photoshop", "illustrator", "figma", "typography", "graphic",
		"user experience", "ux design", "ui design", "branding", "sketching", "animation",
	}},
	{CategoryBusiness, 6, []string{
		"business", "marketing", "management", "leadership", "entrepreneur", "sales",
		"startup", "strategy", "negotiation", "productivity", "project management",
	}},
	{CategoryWebDevelopment, 9, []string{
		"web development", "html", "css", "javascript", "typescript", "react", "frontend",
		"front-end", "backend", "back-end", "website", "node.js", "nodejs", "vue",
		"angular", "full stack", "fullstack",
	}},
	{CategoryMobile, 9, []string{
		"mobile", "android", "iphone", "flutter", "swift", "kotlin", "react native",
		"mobile app", "xamarin",
	}},
	{CategoryCloud, 9, []string{
		"cloud", "aws", "azure", "gcp", "kubernetes", "docker", "devops", "serverless",
		"terraform", "microservices", "infrastructure",
	}},
	{CategoryFinance, 7, []string{
		"finance", "financial", "investing", "investment", "stock market", "trading",
		"accounting", "cryptocurrency", "bitcoin", "budget", "banking", "taxes",
	}},
	{CategoryEducation, 5, []string{
		"teaching", "education", "pedagogy", "classroom", "curriculum", "tutoring",
		"instructional", "e-learning", "teacher",
	}},
}

// Classify scores the course text against every category's keyword set and
// returns the best match, or CategoryGeneral when nothing matches.
func Classify(title, description string) Category {
	text := foldText(title + " " + description)
	best := CategoryGeneral
	bestScore := 0
	for _, rule := range categoryRules {
		hits := 0
		for _, kw := range rule.keywords {
			if strings.Contains(text, kw) {
				hits++
			}
		}
		if score := hits * rule.weight; score > bestScore {
			best, bestScore = rule.category, score
		}
	}
	return best
}

// KnownCategory reports whether c is part of the closed enumeration.
func KnownCategory(c Category) bool {
	if c == CategoryGeneral {
		return true
	}
	for _, rule := range categoryRules {
		if rule.category == c {
			return true
		}
	}
	return false
}
