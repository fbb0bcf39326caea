package tailscale

import (
	"encoding/json"
	"time"
)

// Timestamp wraps time.Time to tolerate the API's habit of sending empty
// strings for unset timestamps. An empty or null value decodes to the zero
// time.
type Timestamp struct {
	time.Time
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var raw string
	if string(data) == "null" {
		t.Time = time.Time{}
		return nil
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == "" {
		t.Time = time.Time{}
		return nil
	}
	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}

// MarshalJSON implements json.Marshaler. The zero time marshals as an empty
// string, mirroring the API's own representation.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return json.Marshal("")
	}
	return json.Marshal(t.Format(time.RFC3339))
}

// ClientSupports describes the NAT traversal capabilities of a device.
type ClientSupports struct {
	HairPinning *bool `json:"hairPinning"`
	IPv6        *bool `json:"ipv6"`
	PCP         *bool `json:"pcp"`
	PMP         *bool `json:"pmp"`
	UDP         *bool `json:"udp"`
	UPnP        *bool `json:"upnp"`
}

// ClientConnectivity describes how a device reaches the rest of the tailnet.
type ClientConnectivity struct {
	ClientSupports        ClientSupports `json:"clientSupports"`
	Endpoints             []string       `json:"endpoints,omitempty"`
	MappingVariesByDestIP *bool          `json:"mappingVariesByDestIP,omitempty"`
}

// Device is a machine registered in the tailnet.
type Device struct {
	ID                        string             `json:"id"`
	Name                      string             `json:"name"`
	Hostname                  string             `json:"hostname"`
	User                      string             `json:"user"`
	OS                        string             `json:"os"`
	Addresses                 []string           `json:"addresses"`
	Authorized                bool               `json:"authorized"`
	IsExternal                bool               `json:"isExternal"`
	BlocksIncomingConnections bool               `json:"blocksIncomingConnections"`
	KeyExpiryDisabled         bool               `json:"keyExpiryDisabled"`
	UpdateAvailable           bool               `json:"updateAvailable"`
	ClientVersion             string             `json:"clientVersion"`
	ClientConnectivity        ClientConnectivity `json:"clientConnectivity"`
	MachineKey                string             `json:"machineKey"`
	NodeKey                   string             `json:"nodeKey"`
	Created                   Timestamp          `json:"created"`
	Expires                   Timestamp          `json:"expires"`
	LastSeen                  Timestamp          `json:"lastSeen"`
	AdvertisedRoutes          []string           `json:"advertisedRoutes,omitempty"`
	EnabledRoutes             []string           `json:"enabledRoutes,omitempty"`
	Tags                      []string           `json:"tags,omitempty"`
}

// KeyCreateCapabilities describes what devices created with an auth key
// look like.
type KeyCreateCapabilities struct {
	Reusable      bool     `json:"reusable"`
	Ephemeral     bool     `json:"ephemeral"`
	Preauthorized bool     `json:"preauthorized"`
	Tags          []string `json:"tags,omitempty"`
}

// KeyDeviceCapabilities groups the device-related capabilities of an auth
// key.
type KeyDeviceCapabilities struct {
	Create KeyCreateCapabilities `json:"create"`
}

// KeyCapabilities describes what an auth key is allowed to do.
type KeyCapabilities struct {
	Devices KeyDeviceCapabilities `json:"devices"`
}

// AuthKey is a pre-authentication key for registering devices. The secret
// Key field is only populated in the response to CreateAuthKey.
type AuthKey struct {
	ID           string           `json:"id"`
	Key          string           `json:"key,omitempty"`
	Description  string           `json:"description,omitempty"`
	User         string           `json:"user,omitempty"`
	Created      Timestamp        `json:"created,omitempty"`
	Expires      Timestamp        `json:"expires,omitempty"`
	LastUsed     Timestamp        `json:"lastUsed,omitempty"`
	Revoked      Timestamp        `json:"revoked,omitempty"`
	Capabilities *KeyCapabilities `json:"capabilities,omitempty"`
}

// CreateKeyRequest describes a new auth key.
type CreateKeyRequest struct {
	Capabilities  KeyCapabilities `json:"capabilities"`
	ExpirySeconds int64           `json:"expirySeconds,omitempty"`
	Description   string          `json:"description,omitempty"`
}

// ACLRule is a single access rule of the tailnet policy file.
type ACLRule struct {
	Action string   `json:"action"`
	Src    []string `json:"src,omitempty"`
	Dst    []string `json:"dst,omitempty"`
	Proto  string   `json:"proto,omitempty"`
}

// ACLTest is an assertion evaluated by the server whenever the policy file
// changes.
type ACLTest struct {
	Src    string   `json:"src"`
	Accept []string `json:"accept,omitempty"`
	Deny   []string `json:"deny,omitempty"`
}

// AutoApprovers lists who may advertise routes and exit nodes without
// manual approval.
type AutoApprovers struct {
	Routes   map[string][]string `json:"routes,omitempty"`
	ExitNode []string            `json:"exitNode,omitempty"`
}

// Policy is the tailnet policy file (ACL) in its JSON representation.
type Policy struct {
	ACLs          []ACLRule           `json:"acls,omitempty"`
	Groups        map[string][]string `json:"groups,omitempty"`
	Hosts         map[string]string   `json:"hosts,omitempty"`
	TagOwners     map[string][]string `json:"tagOwners,omitempty"`
	AutoApprovers *AutoApprovers      `json:"autoApprovers,omitempty"`
	Tests         []ACLTest           `json:"tests,omitempty"`
}
