// Package opds holds the OPDS 2.0 documents served by the catalog.
package opds

import "time"

const (
	MediaTypeFeed           = "application/opds+json"
	MediaTypePublication    = "application/opds-publication+json"
	MediaTypeAuthentication = "application/opds-authentication+json"
	MediaTypeProfile        = "application/opds-profile+json"
	MediaTypeLCPLicense     = "application/vnd.readium.lcp.license.v1.0+json"
	MediaTypeEPUB           = "application/epub+zip"
	MediaTypeHTML           = "text/html"
	MediaTypeJSON           = "application/json"
	MediaTypeJPEG           = "image/jpeg"
)

const (
	RelSelf         = "self"
	RelStart        = "start"
	RelProfile      = "profile"
	RelShelf        = "http://opds-spec.org/shelf"
	RelImage        = "http://opds-spec.org/image"
	RelAcquisition  = "http://opds-spec.org/acquisition"
	RelBorrow       = "http://opds-spec.org/acquisition/borrow"
	RelOpenAccess   = "http://opds-spec.org/acquisition/open-access"
	RelReturn       = "http://opds-spec.org/acquisition/return"
	RelAuthenticate = "authenticate"
	RelCode         = "code"
	RelRefresh      = "refresh"
)

const (
	AuthTypeOAuthImplicit = "http://opds-spec.org/auth/oauth/implicit"
	TypeBook              = "http://schema.org/Book"
	TypePerson            = "http://schema.org/Person"
)

const (
	AvailabilityAvailable   = "available"
	AvailabilityUnavailable = "unavailable"
)

type Link struct {
	Rel        string      `json:"rel,omitempty"`
	Href       string      `json:"href"`
	Type       string      `json:"type,omitempty"`
	Title      string      `json:"title,omitempty"`
	Templated  bool        `json:"templated,omitempty"`
	Properties *Properties `json:"properties,omitempty"`
}

type Properties struct {
	Authenticate        *Link                 `json:"authenticate,omitempty"`
	Availability        *Availability         `json:"availability,omitempty"`
	IndirectAcquisition []IndirectAcquisition `json:"indirectAcquisition,omitempty"`
}

type Availability struct {
	State string `json:"state"`
}

type IndirectAcquisition struct {
	Type  string                `json:"type"`
	Child []IndirectAcquisition `json:"child,omitempty"`
}

type Contributor struct {
	Name string `json:"name"`
}

type Feed struct {
	Metadata     FeedMetadata  `json:"metadata"`
	Links        []Link        `json:"links"`
	Publications []Publication `json:"publications"`
}

type FeedMetadata struct {
	Title         string `json:"title"`
	NumberOfItems *int64 `json:"numberOfItems,omitempty"`
	ItemsPerPage  int    `json:"itemsPerPage,omitempty"`
	CurrentPage   int    `json:"currentPage,omitempty"`
}

type Publication struct {
	Metadata PublicationMetadata `json:"metadata"`
	Links    []Link              `json:"links"`
	Images   []Link              `json:"images,omitempty"`
}

type PublicationMetadata struct {
	Type       string        `json:"@type,omitempty"`
	Title      string        `json:"title"`
	Identifier string        `json:"identifier,omitempty"`
	Modified   *time.Time    `json:"modified,omitempty"`
	Author     []Contributor `json:"author,omitempty"`
	Language   []string      `json:"language,omitempty"`
}

type AuthenticationDocument struct {
	ID             string           `json:"id"`
	Title          string           `json:"title"`
	Description    string           `json:"description,omitempty"`
	Authentication []Authentication `json:"authentication"`
	Links          []Link           `json:"links,omitempty"`
}

type Authentication struct {
	Type  string `json:"type"`
	Links []Link `json:"links"`
}

type Profile struct {
	Metadata ProfileMetadata `json:"metadata"`
	Links    []Link          `json:"links"`
	Loans    Quota           `json:"loans"`
	Holds    Quota           `json:"holds"`
}

type ProfileMetadata struct {
	Title string `json:"title"`
	Type  string `json:"type"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email"`
}

type Quota struct {
	Total     int64 `json:"total"`
	Available int64 `json:"available"`
}
