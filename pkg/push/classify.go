package push

import "strings"

// Category is the shared failure taxonomy across transports.
type Category string

const (
	CategoryPermanentInvalidToken Category = "permanent-invalid-token"
	CategoryTransient             Category = "transient"
	CategoryConfigError           Category = "config-error"
	CategoryUnsupportedPlatform   Category = "unsupported-platform"
)

// Prefixes adapters and the dispatcher put in front of locally produced errors.
const (
	PrefixConfigError         = "config-error: "
	PrefixUnsupportedPlatform = "unsupported-platform: "
	PrefixPlaceholderToken    = "placeholder-token: "
	PrefixTimeout             = "timeout: "
)

// Verdict is the classification of one provider error.
type Verdict struct {
	Category  Category
	Permanent bool
}

// permanentMarkers are lowercase fragments of provider errors meaning the
// token will never succeed again. All provider wording lives here.
var permanentMarkers = []string{
	// APNs reasons
	"baddevicetoken",
	"unregistered",
	"devicetokennotfortopic",
	// FCM codes and messages
	"registration-token-not-registered",
	"invalid-registration-token",
	"not a valid fcm registration token",
	// local rejection
	strings.TrimSuffix(PrefixPlaceholderToken, ": "),
}

// Classify maps a provider error to the shared taxonomy. Only a
// permanent-invalid-token verdict may evict a registration; timeouts, network
// errors, throttling and auth failures are transient.
func Classify(errText string) Verdict {
	text := strings.ToLower(strings.TrimSpace(errText))

	switch {
	case strings.HasPrefix(text, PrefixConfigError):
		return Verdict{Category: CategoryConfigError}
	case strings.HasPrefix(text, PrefixUnsupportedPlatform):
		return Verdict{Category: CategoryUnsupportedPlatform}
	case strings.HasPrefix(text, PrefixTimeout):
		return Verdict{Category: CategoryTransient}
	}

	for _, marker := range permanentMarkers {
		if strings.Contains(text, marker) {
			return Verdict{Category: CategoryPermanentInvalidToken, Permanent: true}
		}
	}
	return Verdict{Category: CategoryTransient}
}
