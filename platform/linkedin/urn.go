package linkedin

import "strings"

const personURNPrefix = "urn:li:person:"

// MemberURN normalizes a stored profile id into LinkedIn's canonical person
// URN. Already-qualified references (person or organization) pass through
// unchanged.
func MemberURN(profileID string) string {
	if strings.HasPrefix(profileID, "urn:li:") {
		return profileID
	}
	return personURNPrefix + profileID
}

// PostURL builds the canonical feed URL for a published post URN.
func PostURL(postURN string) string {
	return "https://www.linkedin.com/feed/update/" + postURN + "/"
}
