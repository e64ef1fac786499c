package scoring

import (
	"regexp"
	"sort"
	"strings"
)

// multiWordTerms are matched as lowercase substrings.
var multiWordTerms = []string{
	"machine learning",
	"deep learning",
	"natural language processing",
	"distributed systems",
	"event-driven",
	"microservices architecture",
	"continuous integration",
	"continuous deployment",
	"infrastructure as code",
	"test-driven development",
	"object-oriented programming",
	"functional programming",
	"data engineering",
	"data science",
	"cloud native",
	"high availability",
	"real-time",
	"full-stack",
	"front-end",
	"back-end",
}

var techPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(Python|Java|JavaScript|TypeScript|Go|Rust|C\+\+|C#|Ruby|PHP|Swift|Kotlin|Scala)\b`),
	regexp.MustCompile(`(?i)\b(React|Angular|Vue|Next\.js|Node\.js|Django|Flask|FastAPI|Spring|Rails|Express)\b`),
	regexp.MustCompile(`(?i)\b(AWS|Azure|GCP|Docker|Kubernetes|Terraform|Ansible|Jenkins|CircleCI|GitHub Actions)\b`),
	regexp.MustCompile(`(?i)\b(PostgreSQL|MySQL|MongoDB|Redis|Elasticsearch|Kafka|RabbitMQ|DynamoDB|Cassandra)\b`),
	regexp.MustCompile(`(?i)\b(REST|GraphQL|gRPC|WebSocket|HTTP|HTTPS)\b`),
	regexp.MustCompile(`(?i)\b(Linux|Unix|Bash|Shell|PowerShell)\b`),
	regexp.MustCompile(`(?i)\b(Git|GitHub|GitLab|Bitbucket)\b`),
	regexp.MustCompile(`(?i)\b(Agile|Scrum|Kanban)\b`),
	regexp.MustCompile(`(?i)\b(SQL|NoSQL|ORM)\b`),
	regexp.MustCompile(`(?i)\b(HTML|CSS|SASS|LESS)\b`),
}

var (
	requiredMarkers  = []string{"required", "must have", "requirements", "qualifications", "minimum"}
	preferredMarkers = []string{"preferred", "nice to have", "bonus", "plus", "desired"}
)

// ExtractKeywords splits the job text's technical terms into required and preferred sets. Lines are
// required until a preferred heading appears, and a later required heading switches back. Both lists are
// sorted case-insensitively.
func ExtractKeywords(jobText string) (required, preferred []string) {
	req := map[string]struct{}{}
	pref := map[string]struct{}{}
	target := req

	for _, line := range strings.Split(jobText, "\n") {
		lower := strings.ToLower(line)
		switch {
		case containsAny(lower, requiredMarkers):
			target = req
		case containsAny(lower, preferredMarkers):
			target = pref
		}

		for _, term := range multiWordTerms {
			if strings.Contains(lower, term) {
				target[term] = struct{}{}
			}
		}
		for _, re := range techPatterns {
			for _, m := range re.FindAllString(line, -1) {
				target[m] = struct{}{}
			}
		}
	}
	return sortedFold(req), sortedFold(pref)
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

func sortedFold(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool {
		li, lj := strings.ToLower(out[i]), strings.ToLower(out[j])
		if li != lj {
			return li < lj
		}
		return out[i] < out[j]
	})
	return out
}
