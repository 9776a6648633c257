package internal

import (
	"testing"

	"github.com/joomcode/errorx"
	"github.com/stretchr/testify/assert"
)

func TestMatch(t *testing.T) {
	testData := []struct {
		r           rune
		respectCase bool
		expected    Instruction
		valid       bool
	}{
		{r: 'H', respectCase: true, expected: PrintGreeting, valid: true},
		{r: 'Q', respectCase: true, expected: EchoSource, valid: true},
		{r: '9', respectCase: true, expected: CountdownVerse, valid: true},
		{r: '+', respectCase: true, expected: IncrementCounter, valid: true},
		{r: 'h', respectCase: true},
		{r: 'q', respectCase: true},
		{r: 'h', respectCase: false, expected: PrintGreeting, valid: true},
		{r: 'q', respectCase: false, expected: EchoSource, valid: true},
		{r: '9', respectCase: false, expected: CountdownVerse, valid: true},
		{r: '+', respectCase: false, expected: IncrementCounter, valid: true},
		{r: 'x', respectCase: false},
		{r: '\n', respectCase: false},
		{r: ' ', respectCase: true},
		{r: '8', respectCase: false},
	}
	for _, data := range testData {
		instruction, err := Match(data.r, 3, data.respectCase)
		if !data.valid {
			assert.NotNil(t, err, "%q", data.r)
			assert.True(t, IsUnrecognizedToken(err))
			continue
		}
		assert.Nil(t, err, "%q", data.r)
		assert.Equal(t, data.expected, instruction)
		optional, exist := MatchOptionally(data.r, data.respectCase)
		assert.True(t, exist)
		assert.Equal(t, instruction, optional)
	}
}

func TestMatch_ErrorProperties(t *testing.T) {
	_, err := Match('x', 7, true)
	assert.NotNil(t, err)
	token, exist := errorx.ExtractProperty(err, TokenProperty)
	assert.True(t, exist)
	assert.Equal(t, 'x', token)
	position, exist := errorx.ExtractProperty(err, PositionProperty)
	assert.True(t, exist)
	assert.Equal(t, 7, position)
}

func TestInstructionTable(t *testing.T) {
	expected := "HQ9+"
	var tokens []rune
	for _, instruction := range Instructions() {
		tokens = append(tokens, instruction.Token())
		assert.NotEmpty(t, instruction.Description())
	}
	assert.Equal(t, expected, string(tokens))
	assert.Equal(t, "9", CountdownVerse.String())
}
