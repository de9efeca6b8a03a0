package domain

import "strings"

// Job classes that have class-scoped rules.
const (
	LinkCrawlWorker        = "LinkCrawlWorker"
	PushNotificationWorker = "Web::PushNotificationWorker"
	RedownloadMediaWorker  = "RedownloadMediaWorker"
)

// MatchKind selects how a rule compares the error text.
type MatchKind int

const (
	MatchPrefix MatchKind = iota
	MatchExact
)

// Rule maps an error text, optionally scoped to a job class, to an action.
type Rule struct {
	Name     string
	JobClass string // empty matches any class
	Match    MatchKind
	Pattern  string
	Action   Action
}

// Matches reports whether the rule applies to the given job.
func (r Rule) Matches(jobClass, errorText string) bool {
	if r.JobClass != "" && r.JobClass != jobClass {
		return false
	}
	if r.Match == MatchExact {
		return errorText == r.Pattern
	}
	return strings.HasPrefix(errorText, r.Pattern)
}

func prefix(name, pattern string, action Action) Rule {
	return Rule{Name: name, Match: MatchPrefix, Pattern: pattern, Action: action}
}

func scopedPrefix(name, jobClass, pattern string, action Action) Rule {
	return Rule{Name: name, JobClass: jobClass, Match: MatchPrefix, Pattern: pattern, Action: action}
}

func scopedExact(name, jobClass, pattern string, action Action) Rule {
	return Rule{Name: name, JobClass: jobClass, Match: MatchExact, Pattern: pattern, Action: action}
}

// DiscardRules returns errors that will never succeed on retry.
func DiscardRules() []Rule {
	return []Rule{
		prefix("record-invalid", "ActiveRecord::RecordInvalid:", ActionDiscard),
		prefix("invalid-byte-sequence", "Encoding::InvalidByteSequenceError:", ActionDiscard),
		prefix("no-address", "HTTP::ConnectionError: failed to connect: No address", ActionDiscard),
		prefix("no-method", "NoMethodError:", ActionDiscard),
		prefix("invalid-uri", "URI::InvalidURIError:", ActionDiscard),
		prefix("zlib-buf", "Zlib::BufError:", ActionDiscard),
		scopedExact("crawl-attributes-limit", LinkCrawlWorker, "ArgumentError: Attributes per element limit exceeded", ActionDiscard),
		scopedExact("crawl-tree-depth", LinkCrawlWorker, "ArgumentError: Document tree depth limit exceeded", ActionDiscard),
		scopedPrefix("crawl-type-error", LinkCrawlWorker, "TypeError: no implicit conversion", ActionDiscard),
		scopedPrefix("push-unexpected-response", PushNotificationWorker, "Mastodon::UnexpectedResponseError:", ActionDiscard),
	}
}

// RetryRules returns errors caused by transient infrastructure trouble.
func RetryRules() []Rule {
	return []Rule{
		prefix("s3-errors", "Aws::S3::Errors:", ActionRetry),
		prefix("race-condition", "Mastodon::RaceConditionError:", ActionRetry),
		scopedPrefix("crawl-networking", LinkCrawlWorker, "Seahorse::Client::NetworkingError:", ActionRetry),
		scopedPrefix("redownload-multipart", RedownloadMediaWorker, "Aws::S3::MultipartUploadError:", ActionRetry),
		scopedPrefix("redownload-timeout", RedownloadMediaWorker, "HTTP::TimeoutError:", ActionRetry),
	}
}
