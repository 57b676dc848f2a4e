package domain

import "regexp"

var (
	usernameRe = regexp.MustCompile(`^[A-Za-z0-9_]{4,64}$`)
	// allowed image content types for darshan uploads
	imageMimeRe = regexp.MustCompile(`^image/(jpeg|png|webp|gif)$`)
)

func ValidUsername(s string) bool { return usernameRe.MatchString(s) }

func ValidPassword(s string) bool { return len(s) >= 8 }

func ValidImageMime(s string) bool { return imageMimeRe.MatchString(s) }
