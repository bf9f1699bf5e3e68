package utils

import (
	"net/url"
	"regexp"
	"slices"
	"strings"

	"github.com/peoplesquare/backend/internal/models"
)

var emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

func ValidateEmail(email string) bool {
	return emailRegex.MatchString(email)
}

func ValidateRole(role string) bool {
	return slices.Contains(models.ValidRoles, role)
}

func ValidateInvestmentStatus(status string) bool {
	return slices.Contains(models.ValidInvestmentStatuses, status)
}

// ValidatePassword returns the first unmet strength rule, or "" when the
// password is acceptable.
func ValidatePassword(password string) string {
	if len(password) < 8 {
		return "Password must be at least 8 characters long"
	}
	var upper, lower, digit bool
	for _, r := range password {
		switch {
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= '0' && r <= '9':
			digit = true
		}
	}
	if !upper {
		return "Password must contain at least one uppercase letter"
	}
	if !lower {
		return "Password must contain at least one lowercase letter"
	}
	if !digit {
		return "Password must contain at least one number"
	}
	return ""
}

// ValidateURL accepts absolute URLs carrying both a scheme and a host.
func ValidateURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return u.Scheme != "" && u.Host != ""
}

// UserFields is the user payload shared by registration and profile edits.
type UserFields struct {
	FullName string
	Email    string
	Role     string
	Password string
}

// SanitizeUser trims the name and normalizes the email to lower case.
func SanitizeUser(in UserFields) UserFields {
	return UserFields{
		FullName: strings.TrimSpace(in.FullName),
		Email:    strings.ToLower(strings.TrimSpace(in.Email)),
		Role:     strings.TrimSpace(in.Role),
		Password: in.Password,
	}
}

// ValidateUser collects every field error. Password rules apply only when
// checkPassword is set.
func ValidateUser(in UserFields, checkPassword bool) []string {
	var errs []string
	if in.FullName == "" {
		errs = append(errs, "Full name is required")
	}
	if in.Email == "" || !ValidateEmail(in.Email) {
		errs = append(errs, "Valid email is required")
	}
	if in.Role == "" || !ValidateRole(in.Role) {
		errs = append(errs, "Valid role is required")
	}
	if checkPassword {
		if msg := ValidatePassword(in.Password); msg != "" {
			errs = append(errs, msg)
		}
	}
	return errs
}

// ProjectFields is the merged view of a project that gets validated before
// any write.
type ProjectFields struct {
	Title            string
	Description      string
	DemoLink         string
	InvestmentStatus string
	Links            models.ProjectLinks
}

// TrimOptional trims s and maps blank values to nil.
func TrimOptional(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	if t == "" {
		return nil
	}
	return &t
}

// SanitizeLinks trims every link and drops blank "other" entries.
func SanitizeLinks(in models.ProjectLinks) models.ProjectLinks {
	out := models.ProjectLinks{
		GitHub:   strings.TrimSpace(in.GitHub),
		LinkedIn: strings.TrimSpace(in.LinkedIn),
		Website:  strings.TrimSpace(in.Website),
		Demo:     strings.TrimSpace(in.Demo),
	}
	for _, o := range in.Other {
		if o = strings.TrimSpace(o); o != "" {
			out.Other = append(out.Other, o)
		}
	}
	return out
}

func ValidateProject(in ProjectFields) []string {
	var errs []string
	title := []rune(in.Title)
	if len(title) < 3 {
		errs = append(errs, "Title must be at least 3 characters long")
	}
	if len(title) > 500 {
		errs = append(errs, "Title must not exceed 500 characters")
	}
	if len([]rune(in.Description)) < 10 {
		errs = append(errs, "Description must be at least 10 characters long")
	}
	if in.InvestmentStatus != "" && !ValidateInvestmentStatus(in.InvestmentStatus) {
		errs = append(errs, "Invalid investment status")
	}
	if in.DemoLink != "" && !ValidateURL(in.DemoLink) {
		errs = append(errs, "Demo link must be a valid URL")
	}

	l := in.Links
	if l.GitHub != "" && !ValidateURL(l.GitHub) {
		errs = append(errs, "GitHub link must be a valid URL")
	}
	if l.LinkedIn != "" && !ValidateURL(l.LinkedIn) {
		errs = append(errs, "LinkedIn link must be a valid URL")
	}
	if l.Website != "" && !ValidateURL(l.Website) {
		errs = append(errs, "Website link must be a valid URL")
	}
	if l.Demo != "" && !ValidateURL(l.Demo) {
		errs = append(errs, "Demo link must be a valid URL")
	}
	for _, o := range l.Other {
		if !ValidateURL(o) {
			errs = append(errs, "Other links must be valid URLs")
			break
		}
	}
	return errs
}
