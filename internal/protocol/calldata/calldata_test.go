package calldata_test

import (
	"encoding/hex"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"feigov/internal/domain"
	"feigov/internal/protocol/calldata"
)

var (
	dripper  = common.HexToAddress("0x00000000000000000000000000000000000000d1")
	timelock = common.HexToAddress("0x00000000000000000000000000000000000000d2")
)

func book() domain.AddressBook {
	return domain.AddressBook{
		"merkleRedeemerDripper": dripper,
		"feiDAOTimelock":        timelock,
	}
}

func TestSelectors(t *testing.T) {
	cases := map[string]string{
		"transfer(address,uint256)":   "a9059cbb",
		"balanceOf(address)":          "70a08231",
		"approve(address, uint256)":   "095ea7b3",
		"mint(address,uint256)":       "40c10f19",
		"revokeRole(bytes32,address)": "d547741f",
	}
	for sig, want := range cases {
		m, err := calldata.ParseMethod(sig)
		require.NoError(t, err, sig)
		assert.Equal(t, want, hex.EncodeToString(m.Selector()), sig)
	}
}

func TestParseMethod_Errors(t *testing.T) {
	for _, sig := range []string{"", "mint", "(address)", "mint(address", "swap((address,uint256))", "f(address,,uint256)"} {
		_, err := calldata.ParseMethod(sig)
		assert.Error(t, err, sig)
	}
}

func TestParseMethod_NoArgs(t *testing.T) {
	m, err := calldata.ParseMethod("clawback()")
	require.NoError(t, err)
	assert.Empty(t, m.Types)
	assert.Equal(t, "clawback()", m.Signature())

	data, err := m.Calldata(nil)
	require.NoError(t, err)
	assert.Len(t, data, 4)
}

func TestEncode_MintWithBookName(t *testing.T) {
	r := calldata.NewResolver(book())
	enc, err := calldata.Encode(r, "mint(address,uint256)", []string{"merkleRedeemerDripper", "10000000000000000000000"})
	require.NoError(t, err)

	require.Len(t, enc.Data, 4+64)
	assert.Equal(t, "40c10f19", hex.EncodeToString(enc.Data[:4]))
	assert.Equal(t, common.LeftPadBytes(dripper.Bytes(), 32), enc.Data[4:36])

	amount, _ := new(big.Int).SetString("10000000000000000000000", 10)
	assert.Equal(t, common.LeftPadBytes(amount.Bytes(), 32), enc.Data[36:68])
	assert.Equal(t, enc.Data[4:], enc.Args)
}

func TestEncode_RoleTemplate(t *testing.T) {
	r := calldata.NewResolver(book())
	enc, err := calldata.Encode(r, "revokeRole(bytes32,address)", []string{`{{ id "MINTER_ROLE" }}`, `{{ addr "feiDAOTimelock" }}`})
	require.NoError(t, err)

	role := crypto.Keccak256([]byte("MINTER_ROLE"))
	assert.Equal(t, role, enc.Args[:32])
	assert.Equal(t, common.LeftPadBytes(timelock.Bytes(), 32), enc.Args[32:64])
}

func TestResolve(t *testing.T) {
	r := calldata.NewResolver(book())

	got, err := r.Resolve(`{{ ether 18000000 }}`)
	require.NoError(t, err)
	assert.Equal(t, "18000000000000000000000000", got)

	got, err = r.Resolve(`{{ units "2.5" 6 }}`)
	require.NoError(t, err)
	assert.Equal(t, "2500000", got)

	got, err = r.Resolve(`{{ .feiDAOTimelock }}`)
	require.NoError(t, err)
	assert.Equal(t, timelock.Hex(), got)

	got, err = r.Resolve("[feiDAOTimelock, merkleRedeemerDripper]")
	require.NoError(t, err)
	assert.Equal(t, "["+timelock.Hex()+","+dripper.Hex()+"]", got)

	_, err = r.Resolve(`{{ addr "nope" }}`)
	assert.ErrorIs(t, err, domain.ErrUnknownAddress)

	_, err = r.Resolve(`{{ units "0.0000001" 6 }}`)
	assert.Error(t, err)
}

func TestPack_TypesAndRanges(t *testing.T) {
	m, err := calldata.ParseMethod("f(uint8,int16,bool,bytes32,address[],uint256[2],bytes,string)")
	require.NoError(t, err)

	_, err = m.Pack([]string{
		"255", "-300", "true",
		"0x" + hex.EncodeToString(make([]byte, 32)),
		"[" + dripper.Hex() + "," + timelock.Hex() + "]",
		"[1, 0x02]",
		"0xdeadbeef",
		"hello",
	})
	require.NoError(t, err)

	_, err = m.Pack([]string{"256", "0", "true", "0x00", "[]", "[1,2]", "0x", ""})
	assert.Error(t, err, "uint8 overflow")

	_, err = m.Pack([]string{"1"})
	assert.Error(t, err, "arity")
}

func TestPackTypes_Constructor(t *testing.T) {
	data, err := calldata.PackTypes("(address,uint256)", []string{dripper.Hex(), "5"})
	require.NoError(t, err)
	require.Len(t, data, 64)
	assert.Equal(t, byte(5), data[63])
}

func TestUnpack(t *testing.T) {
	data, err := calldata.PackTypes("(uint256,int256,bool)", []string{"7", "-3", "true"})
	require.NoError(t, err)

	vals, err := calldata.Unpack("(uint256,int256,bool)", data)
	require.NoError(t, err)
	require.Len(t, vals, 3)
	assert.Equal(t, "7", calldata.Format(vals[0]))
	assert.Equal(t, "-3", calldata.Format(vals[1]))
	assert.Equal(t, "true", calldata.Format(vals[2]))
}

func TestSplitList(t *testing.T) {
	items, err := calldata.SplitList("[a, [b, c], d]")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "[b, c]", "d"}, items)

	items, err = calldata.SplitList("[]")
	require.NoError(t, err)
	assert.Empty(t, items)

	_, err = calldata.SplitList("[a, [b]")
	assert.Error(t, err)
}
