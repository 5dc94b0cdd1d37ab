package evm

import (
	"encoding/json"
	"testing"
)

func validRequestData() ForwardRequestData {
	return ForwardRequestData{
		From:      "0x14791697260E4c9A71f18484C9f997B308e59325",
		To:        "0xe7f1725E7734CE288F8367e1Bb143E90bb3F0512",
		Value:     "0",
		Gas:       "5000000",
		Deadline:  "1700003600",
		Data:      "0x42842e0e",
		Signature: "0x" + "11" + "00000000000000000000000000000000000000000000000000000000000000" + "22" + "00000000000000000000000000000000000000000000000000000000000000" + "1b",
	}
}

func TestToCall(t *testing.T) {
	r := validRequestData()
	call, err := r.ToCall()
	if err != nil {
		t.Fatalf("ToCall() error = %v", err)
	}
	if call.Gas.Int64() != 5000000 || call.Deadline.Int64() != 1700003600 || call.Value.Sign() != 0 {
		t.Errorf("ToCall() numbers = %s/%s/%s", call.Value, call.Gas, call.Deadline)
	}
	if len(call.Data) != 4 || len(call.Signature) != 65 {
		t.Errorf("ToCall() data %d bytes, signature %d bytes", len(call.Data), len(call.Signature))
	}

	req := call.ForwardRequest(nil)
	if req.From != r.From || req.To != r.To {
		t.Errorf("ForwardRequest() addresses = %s -> %s", req.From, req.To)
	}
}

func TestToCallRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ForwardRequestData)
	}{
		{"from", func(r *ForwardRequestData) { r.From = "0x1234" }},
		{"to", func(r *ForwardRequestData) { r.To = "" }},
		{"negative value", func(r *ForwardRequestData) { r.Value = "-1" }},
		{"fractional gas", func(r *ForwardRequestData) { r.Gas = "1.5" }},
		{"hex gas", func(r *ForwardRequestData) { r.Gas = "0x10" }},
		{"empty deadline", func(r *ForwardRequestData) { r.Deadline = "" }},
		{"deadline over uint48", func(r *ForwardRequestData) { r.Deadline = "281474976710656" }},
		{"value over uint256", func(r *ForwardRequestData) {
			r.Value = "115792089237316195423570985008687907853269984665640564039457584007913129639936"
		}},
		{"odd data", func(r *ForwardRequestData) { r.Data = "0x123" }},
		{"non-hex signature", func(r *ForwardRequestData) { r.Signature = "0xzz" }},
		{"empty signature", func(r *ForwardRequestData) { r.Signature = "0x" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := validRequestData()
			tt.mutate(&r)
			if _, err := r.ToCall(); err == nil {
				t.Error("ToCall() succeeded, want error")
			}
		})
	}
}

func TestToCallAcceptsLimits(t *testing.T) {
	r := validRequestData()
	r.Deadline = "281474976710655"
	r.Data = "0x"
	call, err := r.ToCall()
	if err != nil {
		t.Fatalf("ToCall() error = %v", err)
	}
	if len(call.Data) != 0 {
		t.Errorf("data = %x, want empty", call.Data)
	}
}

func TestForwardRequestDataJSON(t *testing.T) {
	var r ForwardRequestData
	body := `{"from":"0x14791697260E4c9A71f18484C9f997B308e59325","to":"0xe7f1725E7734CE288F8367e1Bb143E90bb3F0512","value":0,"gas":5000000,"deadline":1700003600,"data":"0x","signature":"0x01"}`
	if err := json.Unmarshal([]byte(body), &r); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if r.Gas.String() != "5000000" || r.Deadline.String() != "1700003600" {
		t.Errorf("numbers = %s/%s", r.Gas, r.Deadline)
	}

	out, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	var fields map[string]interface{}
	if err := json.Unmarshal(out, &fields); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if _, ok := fields["nonce"]; ok {
		t.Error("wire format carries a nonce")
	}
	if _, ok := fields["gas"].(float64); !ok {
		t.Errorf("gas encoded as %T, want a JSON number", fields["gas"])
	}
}
