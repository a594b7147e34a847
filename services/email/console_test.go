package emailsvc

import (
	"net/mail"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/eleve/core"
)

func TestConsoleServiceMock_SendMessages(t *testing.T) {
	svc := NewConsoleServiceMock(core.NewTestConfig())

	svc.SendMessages(
		&core.EmailMessage{To: []mail.Address{{Address: "awe@test.cd"}}, Subject: "hi", BodyStr: "hello"},
		&core.EmailMessage{Subject: "no recipient", BodyStr: "hello"},
		&core.EmailMessage{To: []mail.Address{{Address: "awe@test.cd"}}, Subject: "no content"},
	)

	sent := svc.Sent()
	if assert.Len(t, sent, 1) {
		assert.Equal(t, "hi", sent[0].Subject)
		assert.Equal(t, "hello", sent[0].TextContent)
	}
}

func TestJoinAddresses(t *testing.T) {
	got := joinAddresses([]mail.Address{{Name: "Awe", Address: "awe@test.cd"}, {Address: "boss@test.cd"}})
	assert.Equal(t, `"Awe" <awe@test.cd>, <boss@test.cd>`, got)
}
