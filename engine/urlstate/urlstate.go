// Package urlstate encodes option lists into a compact, URL-safe token and
// decodes them back. Decoding never fails: any problem yields the default
// option set so a shared link can't break the picker.
package urlstate

import (
	"bytes"
	"encoding/json"
	"net/url"
	"strconv"
	"strings"

	"github.com/nathoo/optionspicker/types"
)

// ParamName is the query parameter carrying the token.
const ParamName = "options"

type record struct {
	N string  `json:"n"`
	W float64 `json:"w"`
}

// Defaults returns the fallback set: three equally weighted options.
func Defaults() []types.Option {
	return []types.Option{
		types.MustOption("Option 1", 1),
		types.MustOption("Option 2", 1),
		types.MustOption("Option 3", 1),
	}
}

// Serialize returns the token for options, or "" when there are none.
func Serialize(options []types.Option) string {
	if len(options) == 0 {
		return ""
	}
	records := make([]record, len(options))
	for i, o := range options {
		records[i] = record{N: o.Name, W: o.Weight}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(records); err != nil {
		// Only non-finite weights fail to encode, and options never carry them.
		return ""
	}
	return url.QueryEscape(strings.TrimSuffix(buf.String(), "\n"))
}

// ShareURL appends the token for options to base as the ParamName query
// parameter. With no options the base is returned unchanged.
func ShareURL(base string, options []types.Option) string {
	token := Serialize(options)
	if token == "" {
		return base
	}
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return base + sep + ParamName + "=" + token
}

// Deserialize decodes a token produced by Serialize. It reports false when
// the defaults were substituted.
func Deserialize(token string) ([]types.Option, bool) {
	if strings.TrimSpace(token) == "" {
		return Defaults(), false
	}
	return decode(unescape(token))
}

// FromQuery extracts the options from a raw query string ("options=...")
// or a full URL carrying one.
func FromQuery(raw string) ([]types.Option, bool) {
	raw = strings.TrimSpace(raw)
	if i := strings.Index(raw, "?"); i >= 0 {
		raw = raw[i+1:]
	}
	if i := strings.Index(raw, "#"); i >= 0 {
		raw = raw[:i]
	}
	return decode(queryValue(raw, ParamName))
}

// queryValue returns the first value of key in a raw query. Unlike
// url.ParseQuery it never gives up on the whole query: pairs with
// semicolons or bad escapes elsewhere do not hide key.
func queryValue(raw, key string) string {
	for _, pair := range strings.Split(raw, "&") {
		k, v, _ := strings.Cut(pair, "=")
		if unescape(k) == key {
			return unescape(v)
		}
	}
	return ""
}

// unescape query-unescapes s, leaving malformed percent escapes as
// literal text instead of failing.
func unescape(s string) string {
	if text, err := url.QueryUnescape(s); err == nil {
		return text
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '+':
			b.WriteByte(' ')
			continue
		case c == '%' && i+2 < len(s):
			if v, err := strconv.ParseUint(s[i+1:i+3], 16, 8); err == nil {
				b.WriteByte(byte(v))
				i += 2
				continue
			}
		}
		b.WriteByte(c)
	}
	return b.String()
}

// decode parses the JSON array, keeping only elements with a non-blank
// string "n" and a positive numeric "w". Two names that collide
// case-insensitively reject the whole token.
func decode(text string) ([]types.Option, bool) {
	var elems []json.RawMessage
	if err := json.Unmarshal([]byte(text), &elems); err != nil || len(elems) == 0 {
		return Defaults(), false
	}

	var options []types.Option
	seen := map[string]bool{}
	for _, raw := range elems {
		var fields map[string]any
		if err := json.Unmarshal(raw, &fields); err != nil {
			continue
		}
		name, ok := fields["n"].(string)
		if !ok {
			continue
		}
		weight, ok := fields["w"].(float64)
		if !ok {
			continue
		}
		o, err := types.NewOption(name, weight)
		if err != nil {
			continue
		}
		key := strings.ToLower(o.Name)
		if seen[key] {
			return Defaults(), false
		}
		seen[key] = true
		options = append(options, o)
	}

	if len(options) == 0 {
		return Defaults(), false
	}
	return options, true
}
