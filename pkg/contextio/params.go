package contextio

import (
	"fmt"
	"net/url"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// Params maps API parameter names to values.
type Params map[string]string

// Clone returns a copy of p. The copy of a nil Params is empty, not nil.
func (p Params) Clone() Params {
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Values converts p to url.Values.
func (p Params) Values() url.Values {
	v := make(url.Values, len(p))
	for k, val := range p {
		v.Set(k, val)
	}
	return v
}

// FilterParams returns the entries of given whose names appear in allowed,
// compared case-insensitively. Result keys use the casing from allowed.
//
// When several keys of given match the same allowed name, the first key in
// sorted order wins.
func FilterParams(given Params, allowed []string) Params {
	filtered := make(Params, len(allowed))
	if len(given) == 0 {
		return filtered
	}

	keys := make([]string, 0, len(given))
	for k := range given {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, name := range allowed {
		if _, ok := filtered[name]; ok {
			continue
		}
		for _, k := range keys {
			if strings.EqualFold(k, name) {
				filtered[name] = given[k]
				break
			}
		}
	}

	return filtered
}

// ParamsFromStruct converts a struct into Params. Field names come from the
// "param" struct tag; zero-valued fields are omitted, so a true boolean is
// sent as "1" and a false one not at all.
//
//	type query struct {
//		Subject string `param:"subject"`
//		Limit   int    `param:"limit"`
//	}
func ParamsFromStruct(v interface{}) (Params, error) {
	raw := map[string]interface{}{}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: "param",
		Result:  &raw,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create decoder: %w", err)
	}
	if err := dec.Decode(v); err != nil {
		return nil, fmt.Errorf("failed to decode params: %w", err)
	}

	params := make(Params, len(raw))
	for k, val := range raw {
		s, ok, err := formatParam(val)
		if err != nil {
			return nil, fmt.Errorf("param %q: %w", k, err)
		}
		if ok {
			params[k] = s
		}
	}

	return params, nil
}

// formatParam renders a scalar as a parameter value. ok is false for nil and
// zero values.
func formatParam(val interface{}) (s string, ok bool, err error) {
	rv := reflect.ValueOf(val)
	for rv.IsValid() && rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return "", false, nil
		}
		rv = rv.Elem()
	}
	if !rv.IsValid() || rv.IsZero() {
		return "", false, nil
	}

	switch rv.Kind() {
	case reflect.String:
		return rv.String(), true, nil
	case reflect.Bool:
		return "1", true, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), true, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10), true, nil
	default:
		return "", false, fmt.Errorf("unsupported type %s", rv.Type())
	}
}

// ListParams are accepted by AllFiles and AllMessages.
type ListParams struct {
	Since int64 `param:"since"`
	Limit int   `param:"limit"`
}

// ContactParams are accepted by ContactFiles and ContactMessages.
type ContactParams struct {
	Email string `param:"email"`
	To    string `param:"to"`
	From  string `param:"from"`
	CC    string `param:"cc"`
	BCC   string `param:"bcc"`
	Limit int    `param:"limit"`
}

// MessageParams identify a message for MessageHeaders, MessageInfo and
// MessageText, either by Message-ID or by sender and date sent.
type MessageParams struct {
	EmailMessageID string `param:"emailmessageid"`
	From           string `param:"from"`
	DateSent       int64  `param:"datesent"`
	Server         string `param:"server"`
	Mbox           string `param:"mbox"`
	UID            string `param:"uid"`
	Type           string `param:"type"`
}

// AddAccountParams are accepted by IMAPAddAccount.
type AddAccountParams struct {
	Email             string `param:"email"`
	Server            string `param:"server"`
	Username          string `param:"username"`
	Password          string `param:"password"`
	OAuthConsumerName string `param:"oauthconsumername"`
	OAuthToken        string `param:"oauthtoken"`
	OAuthTokenSecret  string `param:"oauthtokensecret"`
	UseSSL            bool   `param:"usessl"`
	Port              int    `param:"port"`
	FirstName         string `param:"firstname"`
	LastName          string `param:"lastname"`
}
