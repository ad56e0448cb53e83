package models

import "testing"

func TestTransactionStatusIsTerminal(t *testing.T) {
	if TxnPending.IsTerminal() {
		t.Fatal("pending must not be terminal")
	}
	if !TxnSuccess.IsTerminal() || !TxnFailed.IsTerminal() {
		t.Fatal("success and failed must be terminal")
	}
}

func TestTransactionMetadataRoundTrip(t *testing.T) {
	var txn Transaction
	if got := txn.DecodeMetadata(); len(got) != 0 {
		t.Fatalf("empty metadata decoded to %v", got)
	}

	txn.EncodeMetadata(map[string]string{"checkout_request_id": "ws_CO_1", "phone": "254712345678"})
	got := txn.DecodeMetadata()
	if got["checkout_request_id"] != "ws_CO_1" || got["phone"] != "254712345678" {
		t.Fatalf("unexpected metadata %v", got)
	}

	txn.Metadata = "{not json"
	if got := txn.DecodeMetadata(); len(got) != 0 {
		t.Fatalf("malformed metadata decoded to %v", got)
	}
}
