package contextio

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/iancoleman/strcase"
)

// Action identifies one API operation.
type Action int

const (
	Addresses Action = iota
	AllFiles
	AllMessages
	ContactFiles
	ContactMessages
	ContactSearch
	DiffSummary
	FileRevisions
	RelatedFiles
	FileSearch
	IMAPAccountInfo
	IMAPAddAccount
	IMAPDiscover
	IMAPModifyAccount
	IMAPRemoveAccount
	IMAPResetStatus
	IMAPDeleteOAuthProvider
	IMAPSetOAuthProvider
	IMAPGetOAuthProviders
	MessageHeaders
	MessageInfo
	MessageText
	Search
	ThreadInfo

	numActions
)

// descriptor describes how an action maps onto an HTTP request.
type descriptor struct {
	name    string   // method name, e.g. "allMessages"
	method  string   // HTTP verb
	path    string   // path below the version segment
	doc     string   // documentation page below the version segment
	allowed []string // accepted parameter names, in the API's casing
	extra   Params   // parameters always sent; they override caller values
	account bool     // whether the action is scoped to a mailbox
}

var (
	listParams    = []string{"since", "limit"}
	contactParams = []string{"email", "to", "from", "cc", "bcc", "limit"}
	fileParams    = []string{"fileid", "filename"}
)

var actions = [numActions]descriptor{
	Addresses: {
		name: "addresses", method: http.MethodGet, path: "adresses.json", doc: "addresses",
		account: true,
	},
	AllFiles: {
		name: "allFiles", method: http.MethodGet, path: "allfiles.json", doc: "allfiles",
		allowed: listParams, account: true,
	},
	AllMessages: {
		name: "allMessages", method: http.MethodGet, path: "allmessages.json", doc: "allmessages",
		allowed: listParams, account: true,
	},
	ContactFiles: {
		name: "contactFiles", method: http.MethodGet, path: "contactfiles.json", doc: "contactfiles",
		allowed: contactParams, account: true,
	},
	ContactMessages: {
		name: "contactMessages", method: http.MethodGet, path: "contactmessages.json", doc: "contactmessages",
		allowed: contactParams, account: true,
	},
	ContactSearch: {
		name: "contactSearch", method: http.MethodGet, path: "contactsearch.json", doc: "contactsearch",
		allowed: []string{"search"}, account: true,
	},
	DiffSummary: {
		name: "diffSummary", method: http.MethodGet, path: "diffsummary.json", doc: "diffsummary",
		allowed: []string{"fileId1", "fileId2"},
		extra:   Params{"generate": "1"},
		account: true,
	},
	FileRevisions: {
		name: "fileRevisions", method: http.MethodGet, path: "filerevisions.json", doc: "filerevisions",
		allowed: fileParams, account: true,
	},
	RelatedFiles: {
		name: "relatedFiles", method: http.MethodGet, path: "relatedfiles.json", doc: "relatedfiles",
		allowed: fileParams, account: true,
	},
	FileSearch: {
		name: "fileSearch", method: http.MethodGet, path: "filesearch.json", doc: "filesearch",
		allowed: []string{"filename"}, account: true,
	},
	IMAPAccountInfo: {
		name: "imapAccountInfo", method: http.MethodGet, path: "imap/accountinfo.json", doc: "imap/accountinfo",
		allowed: []string{"email", "userid"},
	},
	IMAPAddAccount: {
		name: "imapAddAccount", method: http.MethodGet, path: "imap/addaccount.json", doc: "imap/addaccount",
		allowed: []string{
			"email", "server", "username", "oauthconsumername", "oauthtoken",
			"oauthtokensecret", "password", "usessl", "port", "firstname", "lastname",
		},
	},
	IMAPDiscover: {
		name: "imapDiscover", method: http.MethodGet, path: "imap/discover.json", doc: "imap/discover",
		allowed: []string{"email"},
	},
	IMAPModifyAccount: {
		name: "imapModifyAccount", method: http.MethodGet, path: "imap/modifyaccount.json", doc: "imap/modifyaccount",
		allowed: []string{"credentials", "mailboxes"}, account: true,
	},
	IMAPRemoveAccount: {
		name: "imapRemoveAccount", method: http.MethodGet, path: "imap/removeaccount.json", doc: "imap/removeaccount",
		allowed: []string{"label"}, account: true,
	},
	IMAPResetStatus: {
		name: "imapResetStatus", method: http.MethodGet, path: "imap/resetstatus.json", doc: "imap/resetstatus",
		allowed: []string{"label"}, account: true,
	},
	IMAPDeleteOAuthProvider: {
		name: "imapDeleteOAuthProvider", method: http.MethodGet, path: "imap/oauthproviders.json", doc: "imap/oauthproviders",
		allowed: []string{"key"},
		extra:   Params{"action": "delete"},
	},
	IMAPSetOAuthProvider: {
		name: "imapSetOAuthProvider", method: http.MethodGet, path: "imap/oauthproviders.json", doc: "imap/oauthproviders",
		allowed: []string{"type", "key", "secret"},
	},
	IMAPGetOAuthProviders: {
		name: "imapGetOAuthProviders", method: http.MethodGet, path: "imap/oauthproviders.json", doc: "imap/oauthproviders",
		allowed: []string{"key"},
	},
	MessageHeaders: {
		name: "messageHeaders", method: http.MethodGet, path: "messageheaders.json", doc: "messageheaders",
		allowed: []string{"emailmessageid", "from", "datesent"}, account: true,
	},
	MessageInfo: {
		name: "messageInfo", method: http.MethodGet, path: "messageinfo.json", doc: "messageinfo",
		allowed: []string{"emailmessageid", "from", "datesent", "server", "mbox", "uid"}, account: true,
	},
	MessageText: {
		name: "messageText", method: http.MethodGet, path: "messagetext.json", doc: "messagetext",
		allowed: []string{"emailmessageid", "from", "datesent", "type"}, account: true,
	},
	Search: {
		name: "search", method: http.MethodGet, path: "search.json", doc: "search",
		allowed: []string{"subject", "limit"}, account: true,
	},
	ThreadInfo: {
		name: "threadInfo", method: http.MethodGet, path: "threadinfo.json", doc: "threadinfo",
		allowed: []string{"gmailthreadid", "emailmessageid"}, account: true,
	},
}

func (a Action) descriptor() (descriptor, bool) {
	if a < 0 || a >= numActions {
		return descriptor{}, false
	}
	return actions[a], true
}

// Actions returns every supported action in table order.
func Actions() []Action {
	out := make([]Action, 0, numActions)
	for a := Action(0); a < numActions; a++ {
		out = append(out, a)
	}
	return out
}

// String returns the action's method name, e.g. "allMessages".
func (a Action) String() string {
	d, ok := a.descriptor()
	if !ok {
		return fmt.Sprintf("Action(%d)", int(a))
	}
	return d.name
}

// Method returns the HTTP verb of the action.
func (a Action) Method() string {
	d, _ := a.descriptor()
	return d.method
}

// Path returns the action path below the version segment.
func (a Action) Path() string {
	d, _ := a.descriptor()
	return d.path
}

// AllowedParams returns a copy of the parameter names the action accepts.
func (a Action) AllowedParams() []string {
	d, _ := a.descriptor()
	return append([]string(nil), d.allowed...)
}

// FixedParams returns a copy of the parameters the action always sends.
func (a Action) FixedParams() Params {
	d, _ := a.descriptor()
	return d.extra.Clone()
}

// TakesAccount reports whether the action is scoped to a mailbox.
func (a Action) TakesAccount() bool {
	d, _ := a.descriptor()
	return d.account
}

// DocURL returns the documentation page of the action for an API version.
func (a Action) DocURL(version string) string {
	d, ok := a.descriptor()
	if !ok {
		return ""
	}
	return "http://context.io/docs/" + version + "/" + d.doc
}

// ParseAction resolves an action from its method name. Matching ignores case
// and word separators, so "allMessages", "all-messages" and "ALL_MESSAGES"
// all name AllMessages.
func ParseAction(name string) (Action, error) {
	want := normalizeActionName(name)
	for a := Action(0); a < numActions; a++ {
		if normalizeActionName(actions[a].name) == want {
			return a, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownAction, name)
}

func normalizeActionName(name string) string {
	return strings.ToLower(strcase.ToCamel(strings.TrimSpace(name)))
}

// Params builds the outgoing parameters of the action from caller input:
// given is filtered against the allow-list and the fixed parameters are
// added. The account is not included.
func (a Action) Params(given Params) (Params, error) {
	d, ok := a.descriptor()
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownAction, int(a))
	}

	p := FilterParams(given, d.allowed)
	for k, v := range d.extra {
		p[k] = v
	}
	return p, nil
}

// Do runs an action. Parameters not accepted by the action are dropped.
// account must be empty for actions that are not scoped to a mailbox.
func (c *Client) Do(ctx context.Context, a Action, account string, params Params) (*Response, error) {
	d, ok := a.descriptor()
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownAction, int(a))
	}
	if account != "" && !d.account {
		return nil, fmt.Errorf("%s does not take an account", d.name)
	}

	p, err := a.Params(params)
	if err != nil {
		return nil, err
	}

	return c.Call(ctx, d.method, account, d.path, p)
}

// DownloadFile would write the content of an attachment to dst. Downloads
// are not supported; it always returns ErrNotImplemented.
func (c *Client) DownloadFile(ctx context.Context, account string, params Params, dst io.Writer) error {
	return fmt.Errorf("downloadFile: %w", ErrNotImplemented)
}
