package clients

import (
	"io"
	"net/url"

	"github.com/archivelabs/lenny/internal/core/model"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Manifest lists the OAuth clients to register.
type Manifest struct {
	Clients []ClientManifest `yaml:"clients"`
}

type ClientManifest struct {
	ID           string   `yaml:"id,omitempty"`
	Name         string   `yaml:"name"`
	RedirectURIs []string `yaml:"redirectUris"`
}

func DecodeManifest(r io.Reader) (*Manifest, error) {
	var manifest Manifest

	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)

	if err := decoder.Decode(&manifest); err != nil {
		return nil, errors.Wrap(err, "could not decode clients manifest")
	}

	return &manifest, nil
}

// Client validates the manifest entry and returns the matching client.
// A client identifier is generated when the entry has none.
func (m ClientManifest) Client() (*model.BaseClient, error) {
	if m.Name == "" {
		return nil, errors.New("client name is required")
	}

	if len(m.RedirectURIs) == 0 {
		return nil, errors.Errorf("client '%s' has no redirect uri", m.Name)
	}

	for _, raw := range m.RedirectURIs {
		redirectURI, err := url.Parse(raw)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid redirect uri '%s'", raw)
		}

		if redirectURI.Scheme == "" || redirectURI.Fragment != "" {
			return nil, errors.Errorf("invalid redirect uri '%s', expected an absolute uri without fragment", raw)
		}
	}

	id := model.ClientID(m.ID)
	if id == "" {
		id = model.NewClientID()
	}

	return model.NewClient(id, m.Name, m.RedirectURIs...), nil
}

func toManifest(clients []model.Client) Manifest {
	manifest := Manifest{
		Clients: make([]ClientManifest, 0, len(clients)),
	}

	for _, c := range clients {
		manifest.Clients = append(manifest.Clients, ClientManifest{
			ID:           string(c.ID()),
			Name:         c.Name(),
			RedirectURIs: c.RedirectURIs(),
		})
	}

	return manifest
}
