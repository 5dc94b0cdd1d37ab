package evm

import (
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

func TestParseTokenID(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "1", want: "1"},
		{in: " 42 ", want: "42"},
		{in: "0x0a", want: "10"},
		{in: "0X10", want: "16"},
		{in: "115792089237316195423570985008687907853269984665640564039457584007913129639935", want: "115792089237316195423570985008687907853269984665640564039457584007913129639935"},
		{in: "", wantErr: true},
		{in: "   ", wantErr: true},
		{in: "-1", wantErr: true},
		{in: "abc", wantErr: true},
		{in: "0x", wantErr: true},
		{in: "1.5", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTokenID(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseTokenID(%q) = %s, want error", tt.in, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseTokenID(%q) error = %v", tt.in, err)
			}
			if got.String() != tt.want {
				t.Errorf("ParseTokenID(%q) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}

func TestSafeTransferFromCalldata(t *testing.T) {
	from := "0x14791697260E4c9A71f18484C9f997B308e59325"
	to := "0x70997970C51812dc3A010C7d01b50e0d17dc79C8"

	data, err := EncodeSafeTransferFrom(from, to, big.NewInt(7))
	if err != nil {
		t.Fatalf("EncodeSafeTransferFrom() error = %v", err)
	}
	// selector of safeTransferFrom(address,address,uint256)
	if got := BytesToHex(data[:4]); got != "0x42842e0e" {
		t.Errorf("selector = %s, want 0x42842e0e", got)
	}
	if len(data) != 4+3*32 {
		t.Errorf("calldata length = %d, want %d", len(data), 4+3*32)
	}

	gotFrom, gotTo, tokenID, err := DecodeSafeTransferFrom(data)
	if err != nil {
		t.Fatalf("DecodeSafeTransferFrom() error = %v", err)
	}
	if gotFrom != common.HexToAddress(from) || gotTo != common.HexToAddress(to) || tokenID.Int64() != 7 {
		t.Errorf("DecodeSafeTransferFrom() = %s, %s, %s", gotFrom.Hex(), gotTo.Hex(), tokenID)
	}
}

func TestEncodeSafeTransferFromRejectsAddresses(t *testing.T) {
	valid := "0x14791697260E4c9A71f18484C9f997B308e59325"
	if _, err := EncodeSafeTransferFrom("0x1234", valid, big.NewInt(1)); err == nil {
		t.Error("accepted short from address")
	}
	if _, err := EncodeSafeTransferFrom(valid, "not an address", big.NewInt(1)); err == nil {
		t.Error("accepted invalid to address")
	}
}

func TestDecodeSafeTransferFromRejects(t *testing.T) {
	data, err := EncodeSafeTransferFrom(
		"0x14791697260E4c9A71f18484C9f997B308e59325",
		"0x70997970C51812dc3A010C7d01b50e0d17dc79C8",
		big.NewInt(1),
	)
	if err != nil {
		t.Fatalf("EncodeSafeTransferFrom() error = %v", err)
	}

	approve := append([]byte{0x09, 0x5e, 0xa7, 0xb3}, data[4:]...)

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"selector only", data[:3]},
		{"other selector", approve},
		{"truncated arguments", data[:4+32]},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, _, err := DecodeSafeTransferFrom(tt.data); err == nil {
				t.Error("DecodeSafeTransferFrom() succeeded, want error")
			}
		})
	}
}

func TestParseEIP712Domain(t *testing.T) {
	verifying := common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3")
	result := []interface{}{
		[1]byte{0x0f},
		"ERC2771Forwarder",
		"1",
		big.NewInt(11155111),
		verifying,
		[32]byte{},
		[]*big.Int{},
	}

	domain, err := ParseEIP712Domain(result)
	if err != nil {
		t.Fatalf("ParseEIP712Domain() error = %v", err)
	}
	if domain.Name != "ERC2771Forwarder" || domain.Version != "1" {
		t.Errorf("name/version = %q/%q", domain.Name, domain.Version)
	}
	if domain.ChainID.Cmp(big.NewInt(11155111)) != 0 {
		t.Errorf("chainId = %s", domain.ChainID)
	}
	if domain.VerifyingContract != verifying.Hex() {
		t.Errorf("verifyingContract = %s, want %s", domain.VerifyingContract, verifying.Hex())
	}

	bad := []interface{}{
		"not a tuple",
		[]interface{}{[1]byte{}, "name"},
		[]interface{}{[1]byte{}, 1, "1", big.NewInt(1), verifying},
		[]interface{}{[1]byte{}, "name", "1", uint64(1), verifying},
		[]interface{}{[1]byte{}, "name", "1", big.NewInt(1), verifying.Hex()},
	}
	for i, b := range bad {
		if _, err := ParseEIP712Domain(b); err == nil {
			t.Errorf("case %d: ParseEIP712Domain() succeeded, want error", i)
		}
	}
}

func TestNetworks(t *testing.T) {
	if got := NormalizeNetwork("Sepolia"); got != DefaultNetwork {
		t.Errorf("NormalizeNetwork(Sepolia) = %s, want %s", got, DefaultNetwork)
	}
	if got := NormalizeNetwork("eip155:31337"); got != "eip155:31337" {
		t.Errorf("NormalizeNetwork() changed an unknown network: %s", got)
	}

	chainID, err := GetEvmChainId("sepolia")
	if err != nil || chainID.Cmp(ChainIDSepolia) != 0 {
		t.Errorf("GetEvmChainId(sepolia) = %v, %v", chainID, err)
	}
	chainID, err = GetEvmChainId("eip155:31337")
	if err != nil || chainID.Int64() != 31337 {
		t.Errorf("GetEvmChainId(eip155:31337) = %v, %v", chainID, err)
	}
	if _, err := GetEvmChainId("solana:devnet"); err == nil {
		t.Error("GetEvmChainId() accepted a non-EVM network")
	}

	if _, err := GetNetworkConfig("eip155:31337"); err == nil {
		t.Error("GetNetworkConfig() returned a config for an unknown network")
	}
}

func TestTxURL(t *testing.T) {
	hash := "0x" + "ab" + "00000000000000000000000000000000000000000000000000000000000000"

	if got, want := TxURL("sepolia", hash), "https://sepolia.etherscan.io/tx/"+hash; got != want {
		t.Errorf("TxURL() = %s, want %s", got, want)
	}
	if got := TxURL("eip155:31337", hash); got != "" {
		t.Errorf("TxURL() on an unknown network = %s, want empty", got)
	}
	if got := TxURL("sepolia", ""); got != "" {
		t.Errorf("TxURL() without hash = %s, want empty", got)
	}
}

func TestIsValidAddress(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"0x14791697260E4c9A71f18484C9f997B308e59325", true},
		{"0X14791697260e4c9a71f18484c9f997b308e59325", true},
		{"14791697260E4c9A71f18484C9f997B308e59325", false},
		{"0x14791697260E4c9A71f18484C9f997B308e5932", false},
		{"0x14791697260E4c9A71f18484C9f997B308e5932g", false},
		{"", false},
		{"0x", false},
	}
	for _, tt := range tests {
		if got := IsValidAddress(tt.in); got != tt.want {
			t.Errorf("IsValidAddress(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}

	if !SameAddress("0x14791697260E4c9A71f18484C9f997B308e59325", "0x14791697260e4c9a71f18484c9f997b308e59325") {
		t.Error("SameAddress() is case sensitive")
	}
}

func TestCreateDeadline(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	if got := CreateDeadline(now, DefaultValidityPeriod*time.Second); got.Int64() != 1_700_003_600 {
		t.Errorf("CreateDeadline() = %s, want 1700003600", got)
	}
	if got := BigToNumber(nil); got != "0" {
		t.Errorf("BigToNumber(nil) = %s, want 0", got)
	}
}
