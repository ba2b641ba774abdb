package feemsg

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func validAnnouncement() *FeeAnnouncement {
	return &FeeAnnouncement{
		Fees: map[string]string{
			"0x1c7d4b196cb0c7b01d743fbc6116a902379c7238": "0x64",
		},
		FeeExpiration:       1767225600000,
		FeesID:              "abc123",
		RailgunAddress:      "0zk1qyjftlcuuxwjj574e5979wzt5veel9wmnh8peq6slvd668pz9ggzerv7j6fe",
		Identifier:          "test-broadcaster",
		AvailableWallets:    3,
		Version:             "8.1.0",
		RelayAdapt:          "0x4025ee6512dbbda97049bcf5aa5d38c54af6be8a",
		RequiredPOIListKeys: []string{"efc6ddb59c098a13fb2b618fdae94c1c3a807abc8fb1837c93620c9143ee9e88"},
		Reliability:         0.97,
	}
}

func TestDecode_RoundTrip(t *testing.T) {
	ann := validAnnouncement()
	raw, err := Encode(ann, "deadbeef")
	require.NoError(t, err)

	got, err := NewCodec().Decode(raw)
	require.NoError(t, err)
	require.Equal(t, ann, got)
}

func TestDecode_MalformedEnvelope(t *testing.T) {
	c := NewCodec()

	_, err := c.Decode([]byte("not json"))
	require.ErrorIs(t, err, ErrMalformedEnvelope)

	// valid JSON but missing fields
	_, err = c.Decode([]byte(`{"data":""}`))
	require.ErrorIs(t, err, ErrMalformedEnvelope)
}

func TestDecode_MalformedPayload(t *testing.T) {
	c := NewCodec()

	env, _ := json.Marshal(Envelope{Data: "zzzz", Signature: "00"})
	_, err := c.Decode(env)
	require.ErrorIs(t, err, ErrMalformedPayload)

	// valid hex, invalid inner JSON
	env, _ = json.Marshal(Envelope{Data: hex.EncodeToString([]byte("{broken")), Signature: "00"})
	_, err = c.Decode(env)
	require.ErrorIs(t, err, ErrMalformedPayload)

	// inner JSON missing required fields
	env, _ = json.Marshal(Envelope{Data: hex.EncodeToString([]byte(`{"version":"8.0.0"}`)), Signature: "00"})
	_, err = c.Decode(env)
	require.ErrorIs(t, err, ErrMalformedPayload)
}

func TestDecode_VersionGate(t *testing.T) {
	c := NewCodec()

	old := validAnnouncement()
	old.Version = "7.9.0"
	raw, err := Encode(old, "00")
	require.NoError(t, err)

	_, err = c.Decode(raw)
	var ive *IncompatibleVersionError
	require.True(t, errors.As(err, &ive))
	require.Equal(t, "7.9.0", ive.Got)
	require.Equal(t, "8", ive.Expected)

	ok := validAnnouncement()
	ok.Version = "8.2.3"
	raw, err = Encode(ok, "00")
	require.NoError(t, err)
	got, err := c.Decode(raw)
	require.NoError(t, err)
	require.Equal(t, "8.2.3", got.Version)
}

func TestDecode_ZeroXPrefixedData(t *testing.T) {
	ann := validAnnouncement()
	inner, err := json.Marshal(ann)
	require.NoError(t, err)
	env, _ := json.Marshal(Envelope{Data: "0x" + hex.EncodeToString(inner), Signature: "00"})

	got, err := NewCodec().Decode(env)
	require.NoError(t, err)
	require.Equal(t, ann.FeesID, got.FeesID)
}

func TestMajorVersion(t *testing.T) {
	require.Equal(t, "8", MajorVersion("8.1.2"))
	require.Equal(t, "8", MajorVersion("8"))
	require.Equal(t, "10", MajorVersion("10.0.0-beta"))
}
