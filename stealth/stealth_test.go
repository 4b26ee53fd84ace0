package stealth

import (
	"crypto/rand"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerolation/nachtara/key"
)

// Fixed scalars for the pinned vector: spend = 1, view = 2, ephemeral = 2.
func vectorKeys(t *testing.T) (*key.Key, *Ephemeral) {
	t.Helper()

	keys, err := key.FromScalars(scalarBytes(1), scalarBytes(2))
	require.NoError(t, err)

	ephPriv, err := key.NewPrivateScalar(scalarBytes(2))
	require.NoError(t, err)

	return keys, &Ephemeral{Priv: ephPriv, Pub: ephPriv.Public()}
}

func scalarBytes(n int64) []byte {
	b := make([]byte, 32)
	big.NewInt(n).FillBytes(b)
	return b
}

func TestGenerateGoldenVector(t *testing.T) {
	keys, eph := vectorKeys(t)

	info, err := Generate(keys.MetaAddress().Bytes(), eph, nil)
	require.NoError(t, err)

	assert.Equal(t, common.HexToAddress("0xb0f003f07afc221ba83d615df43948ba2ee3e5fa"), info.Address)
	assert.Equal(t, byte(0x98), info.ViewTag)
	assert.Equal(t, eph.Pub, info.EphemeralPub)
}

func TestRecoverGoldenVector(t *testing.T) {
	keys, eph := vectorKeys(t)

	priv, err := RecoverPrivateKey(eph.Pub, keys.PrivateSpend(), keys.PrivateView())
	require.NoError(t, err)

	assert.Equal(t, "98f5e1cef4f9e10f178342158c0d03ff1083f130736437af1ea76d0adff59b40",
		new(big.Int).SetBytes(priv.Bytes()).Text(16))

	addr, err := priv.Public().Address()
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress("0xb0f003f07afc221ba83d615df43948ba2ee3e5fa"), addr)
}

func TestGenerateRecognizeRoundTrip(t *testing.T) {
	keys, err := key.NewKeyPair(rand.Reader)
	require.NoError(t, err)

	info, err := Generate(keys.MetaAddress().Bytes(), nil, rand.Reader)
	require.NoError(t, err)

	ours, err := Recognize(info.EphemeralPub, keys.PubSpend, keys.PrivateView(), info.Address, info.ViewTag)
	require.NoError(t, err)
	assert.True(t, ours)

	// An unrelated key pair does not recognise the payment.
	stranger, err := key.NewKeyPair(rand.Reader)
	require.NoError(t, err)

	ours, err = Recognize(info.EphemeralPub, stranger.PubSpend, stranger.PrivateView(), info.Address, info.ViewTag)
	require.NoError(t, err)
	assert.False(t, ours)
}

func TestRecognizeViewTagShortCircuit(t *testing.T) {
	keys, err := key.NewKeyPair(rand.Reader)
	require.NoError(t, err)

	info, err := Generate(keys.MetaAddress().Bytes(), nil, rand.Reader)
	require.NoError(t, err)

	// Right keys, wrong tag: rejected before the address is ever derived.
	ours, err := Recognize(info.EphemeralPub, keys.PubSpend, keys.PrivateView(), info.Address, info.ViewTag^0xff)
	require.NoError(t, err)
	assert.False(t, ours)
}

func TestRecoverMatchesGeneratedAddress(t *testing.T) {
	for i := 0; i < 16; i++ {
		keys, err := key.NewKeyPair(rand.Reader)
		require.NoError(t, err)

		info, err := Generate(keys.MetaAddress().Bytes(), nil, rand.Reader)
		require.NoError(t, err)

		priv, err := RecoverPrivateKey(info.EphemeralPub, keys.PrivateSpend(), keys.PrivateView())
		require.NoError(t, err)

		addr, err := priv.Public().Address()
		require.NoError(t, err)
		assert.Equal(t, info.Address, addr)
	}
}

func TestGenerateSingleKeyMetaAddress(t *testing.T) {
	keys, err := key.NewKeyPair(rand.Reader)
	require.NoError(t, err)

	// 33-byte meta-address: the spend key doubles as the view key.
	info, err := Generate(keys.PubSpend.Bytes(), nil, rand.Reader)
	require.NoError(t, err)

	ours, err := Recognize(info.EphemeralPub, keys.PubSpend, keys.PrivateSpend(), info.Address, info.ViewTag)
	require.NoError(t, err)
	assert.True(t, ours)
}

func TestGenerateRejectsBadMeta(t *testing.T) {
	_, err := Generate(make([]byte, 40), nil, rand.Reader)
	assert.Equal(t, key.ErrInvalidMetaAddressLength, err)

	offCurve := make([]byte, key.MetaAddressLength)
	offCurve[0] = 0x02
	offCurve[32] = 0x05
	offCurve[33] = 0x02
	offCurve[65] = 0x05
	_, err = Generate(offCurve, nil, rand.Reader)
	assert.Equal(t, key.ErrInvalidPublicKey, err)
}

func TestViewTagDistribution(t *testing.T) {
	if testing.Short() {
		t.Skip("distribution check is slow")
	}

	keys, err := key.NewKeyPair(rand.Reader)
	require.NoError(t, err)
	meta := keys.MetaAddress().Bytes()

	const rounds = 2000
	var counts [256]int
	for i := 0; i < rounds; i++ {
		info, err := Generate(meta, nil, rand.Reader)
		require.NoError(t, err)
		counts[info.ViewTag]++
	}

	// Roughly uniform: no tag value more than 4x the expected frequency.
	limit := 4 * rounds / 256
	for tag, n := range counts {
		assert.LessOrEqual(t, n, limit, "tag %#02x", tag)
	}
}

func TestMetadata(t *testing.T) {
	md := PackMetadata(0xab, []byte{0xee, 0xff})
	assert.Equal(t, []byte{0xab, 0xee, 0xff}, md)

	tag, err := UnpackViewTag(md)
	require.NoError(t, err)
	assert.Equal(t, byte(0xab), tag)

	tag, err = UnpackViewTag(PackMetadata(0x01, nil))
	require.NoError(t, err)
	assert.Equal(t, byte(0x01), tag)

	_, err = UnpackViewTag(nil)
	assert.Equal(t, ErrEmptyMetadata, err)
}
