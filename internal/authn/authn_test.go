package authn

import "testing"

func TestVerifyAcceptsCorrectCredentials(t *testing.T) {
	a := New(Credentials{Username: "admin", Password: "hunter2"})
	if !a.Verify("admin", "hunter2") {
		t.Error("expected correct credentials to verify")
	}
}

func TestVerifyRejectsWrongPassword(t *testing.T) {
	a := New(Credentials{Username: "admin", Password: "hunter2"})
	if a.Verify("admin", "wrong") {
		t.Error("expected wrong password to fail")
	}
}

func TestVerifyRejectsWrongUsername(t *testing.T) {
	a := New(Credentials{Username: "admin", Password: "hunter2"})
	if a.Verify("nope", "hunter2") {
		t.Error("expected wrong username to fail")
	}
}

func TestVerifyRejectsEmptySubmission(t *testing.T) {
	a := New(Credentials{Username: "admin", Password: "hunter2"})
	if a.Verify("", "") {
		t.Error("expected empty credentials to fail")
	}
}

func TestParseBasicHeaderDecodesValidHeader(t *testing.T) {
	// base64("admin:hunter2") = YWRtaW46aHVudGVyMg==
	user, pass, ok := ParseBasicHeader("Basic YWRtaW46aHVudGVyMg==")
	if !ok || user != "admin" || pass != "hunter2" {
		t.Errorf("got user=%q pass=%q ok=%v", user, pass, ok)
	}
}

func TestParseBasicHeaderRejectsMalformed(t *testing.T) {
	cases := []string{"", "Bearer abc", "Basic not-base64!!", "Basic " + "YWRtaW4="}
	for _, header := range cases {
		if _, _, ok := ParseBasicHeader(header); ok {
			t.Errorf("expected %q to fail parsing", header)
		}
	}
}
