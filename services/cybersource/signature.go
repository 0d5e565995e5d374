package cybersource

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"strings"
)

// Param is one ordered form field.
type Param struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Params is an ordered set of form fields. Order matters for signing.
type Params []Param

// Get returns the value of name, or "" when absent.
func (p Params) Get(name string) string {
	for _, param := range p {
		if param.Name == name {
			return param.Value
		}
	}
	return ""
}

// Map flattens the params for lookups.
func (p Params) Map() map[string]string {
	m := make(map[string]string, len(p))
	for _, param := range p {
		m[param.Name] = param.Value
	}
	return m
}

// SigningString joins the named fields as "name=value" pairs separated by
// commas, in the given order.
func SigningString(names []string, values map[string]string) string {
	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = name + "=" + values[name]
	}
	return strings.Join(parts, ",")
}

// Sign returns base64(HMAC-SHA256(secretKey, message)).
func Sign(secretKey, message string) string {
	mac := hmac.New(sha256.New, []byte(secretKey))
	mac.Write([]byte(message))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// signedFieldNames splits the signed_field_names value.
func signedFieldNames(values map[string]string) []string {
	raw := values["signed_field_names"]
	if raw == "" {
		return nil
	}
	return strings.Split(raw, ",")
}

// VerifySignature recomputes the signature over the fields listed in
// signed_field_names and compares it with the signature field in constant
// time.
func VerifySignature(secretKey string, values map[string]string) bool {
	names := signedFieldNames(values)
	got := values["signature"]
	if len(names) == 0 || got == "" {
		return false
	}
	want := Sign(secretKey, SigningString(names, values))
	return hmac.Equal([]byte(want), []byte(got))
}
