package detect

import "strings"

// malwareSignatures is the fixed catalog of substrings that trigger a
// malware_detection alert when present in raw log text.
var malwareSignatures = []string{
	"mimikatz",
	"powershell -enc",
	"ransomware",
	"trojan",
	"meterpreter",
	"cobalt strike",
	"malware",
}

// matchesMalwareSignature reports whether raw log text contains any
// known malware signature. Matching is case-insensitive.
func matchesMalwareSignature(raw string) bool {
	lower := strings.ToLower(raw)
	for _, sig := range malwareSignatures {
		if strings.Contains(lower, sig) {
			return true
		}
	}
	return false
}
