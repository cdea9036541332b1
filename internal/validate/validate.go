// Package validate provides input validation helpers for the violet CLI.
package validate

import (
	"math"
	"net"
	"net/url"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/carolin-violet/violet-reminder/internal/errors"
	"github.com/carolin-violet/violet-reminder/internal/model"
)

const (
	// MaxURLLength is the maximum length for a URL.
	MaxURLLength = 2048
	// MaxTitleLength is the maximum length for a to-do title.
	MaxTitleLength = 256
	// MaxAddressLength is the maximum length for a location address.
	MaxAddressLength = 512
	// MaxWebhookNameLength is the maximum length for a webhook name.
	MaxWebhookNameLength = 32
)

// Radius parses radius input in meters. Input that is not a finite number
// is rejected as RadiusNotANumber, values under model.MinRadius as
// RadiusBelowMinimum.
func Radius(input string) (float64, error) {
	s := strings.TrimSpace(input)
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, &errors.InvalidRadiusError{Input: input, Kind: errors.RadiusNotANumber}
	}
	if f < model.MinRadius {
		return 0, &errors.InvalidRadiusError{Input: input, Kind: errors.RadiusBelowMinimum}
	}
	return f, nil
}

// Longitude validates a longitude in degrees.
func Longitude(lon float64) error {
	if math.IsNaN(lon) || lon < -180 || lon > 180 {
		return errors.NewUserErrorWithField("longitude", strconv.FormatFloat(lon, 'f', -1, 64),
			"Invalid longitude",
			"Longitude must be between -180 and 180")
	}
	return nil
}

// Latitude validates a latitude in degrees.
func Latitude(lat float64) error {
	if math.IsNaN(lat) || lat < -90 || lat > 90 {
		return errors.NewUserErrorWithField("latitude", strconv.FormatFloat(lat, 'f', -1, 64),
			"Invalid latitude",
			"Latitude must be between -90 and 90")
	}
	return nil
}

// Coordinate validates a longitude/latitude pair.
func Coordinate(lon, lat float64) error {
	if err := Longitude(lon); err != nil {
		return errors.Wrap(errors.ErrInvalidCoordinate, err.Error())
	}
	if err := Latitude(lat); err != nil {
		return errors.Wrap(errors.ErrInvalidCoordinate, err.Error())
	}
	return nil
}

// Title validates a to-do title after trimming.
func Title(title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return errors.ErrTitleRequired
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return errors.NewUserErrorWithField("title", title,
			"Title too long",
			"Titles must be 256 characters or fewer")
	}
	return nil
}

// Address validates an optional location address.
func Address(address string) error {
	if utf8.RuneCountInString(address) > MaxAddressLength {
		return errors.NewUserError(
			"Address too long",
			"Addresses must be 512 characters or fewer")
	}
	return nil
}

// WebhookName validates a webhook name.
func WebhookName(name string) error {
	if name == "" {
		return errors.NewUserError("Webhook name cannot be empty", "Provide a name like 'team-slack'")
	}
	if len(name) > MaxWebhookNameLength || !model.IsValidWebhookName(name) {
		return errors.NewUserErrorWithField("name", name,
			"Invalid webhook name",
			"Names must be 32 characters or fewer and contain only letters, numbers, dashes, or underscores")
	}
	return nil
}

// URL validates a URL for use as a webhook endpoint.
func URL(rawURL string) error {
	if rawURL == "" {
		return errors.NewUserError("URL cannot be empty", "Provide a valid URL")
	}
	if len(rawURL) > MaxURLLength {
		return errors.NewUserError("URL too long", "URLs must be 2048 characters or fewer")
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return errors.NewUserErrorWithField("url", rawURL,
			"Invalid URL format",
			"Provide a valid URL starting with https://")
	}

	if parsed.Scheme != "https" && parsed.Scheme != "http" {
		return errors.NewUserErrorWithField("url", rawURL,
			"Invalid URL scheme",
			"URLs must use https:// (or http:// for localhost)")
	}

	hostname := parsed.Hostname()
	if hostname == "" {
		return errors.NewUserErrorWithField("url", rawURL,
			"Invalid URL: missing hostname",
			"Provide a valid URL like https://example.com/webhook")
	}

	isLocalhost := hostname == "localhost" || hostname == "127.0.0.1" || hostname == "::1"

	if parsed.Scheme == "http" && !isLocalhost {
		return errors.NewUserErrorWithField("url", rawURL,
			"HTTP not allowed for external URLs",
			"Use https:// for security. HTTP is only allowed for localhost.")
	}

	if !isLocalhost {
		if err := checkInternalIP(hostname); err != nil {
			return err
		}
	}

	return nil
}

// checkInternalIP checks if a hostname resolves to an internal IP.
func checkInternalIP(hostname string) error {
	if ip := net.ParseIP(hostname); ip != nil {
		if isInternalIP(ip) {
			return errors.NewUserErrorWithField("url", hostname,
				"Internal IP addresses not allowed",
				"Webhook URLs must point to external services")
		}
		return nil
	}

	ips, err := net.LookupIP(hostname)
	if err != nil {
		// Unresolvable now; delivery will report it.
		return nil
	}

	for _, ip := range ips {
		if isInternalIP(ip) {
			return errors.NewUserErrorWithField("url", hostname,
				"Hostname resolves to internal IP",
				"Webhook URLs must point to external services")
		}
	}

	return nil
}

var privateRanges = []string{
	"10.0.0.0/8",
	"172.16.0.0/12",
	"192.168.0.0/16",
	"127.0.0.0/8",
	"169.254.0.0/16",
	"fc00::/7",
	"fe80::/10",
	"::1/128",
}

// isInternalIP checks if an IP is in a private/internal range.
func isInternalIP(ip net.IP) bool {
	for _, cidr := range privateRanges {
		_, network, err := net.ParseCIDR(cidr)
		if err != nil {
			continue
		}
		if network.Contains(ip) {
			return true
		}
	}
	return false
}

// NonEmpty validates that a string is not empty.
func NonEmpty(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return errors.NewUserError(
			field+" cannot be empty",
			"Provide a value for "+field)
	}
	return nil
}

// InRange validates that an integer is within a range.
func InRange(field string, value, min, max int) error {
	if value < min || value > max {
		return errors.NewUserErrorWithField(field, strconv.Itoa(value),
			"Value out of range",
			"Must be between "+strconv.Itoa(min)+" and "+strconv.Itoa(max))
	}
	return nil
}
