package internal

import (
	"github.com/xiaobogaga/hq9plus/util"
)

// A simple token matcher for HQ9+.

// HQ9+ has exactly four instructions, one character each:
// * H: prints "Hello, world!".
// * Q: prints the source of the program.
// * 9: prints the lyrics of "99 Bottles of Beer".
// * +: increments the accumulator.
// Every other character, whitespace included, is an error.

type Instruction int

const (
	PrintGreeting    Instruction = iota // H
	EchoSource                          // Q
	CountdownVerse                      // 9
	IncrementCounter                    // +
)

type instructionInfo struct {
	token       rune
	description string
}

var instructionTable = [...]instructionInfo{
	PrintGreeting:    {token: 'H', description: "Prints \"Hello, world!\""},
	EchoSource:       {token: 'Q', description: "Prints the entire text of the source code file."},
	CountdownVerse:   {token: '9', description: "Prints the complete canonical lyrics to \"99 Bottles of Beer on the Wall\""},
	IncrementCounter: {token: '+', description: "Increments the accumulator."},
}

// tokenInstructionMap is the mapping from a trigger character to the corresponding Instruction.
var tokenInstructionMap = map[rune]Instruction{
	'H': PrintGreeting,
	'Q': EchoSource,
	'9': CountdownVerse,
	'+': IncrementCounter,
}

// Instructions lists the four instructions in table order.
func Instructions() []Instruction {
	return []Instruction{PrintGreeting, EchoSource, CountdownVerse, IncrementCounter}
}

func (instruction Instruction) Token() rune {
	return instructionTable[instruction].token
}

func (instruction Instruction) Description() string {
	return instructionTable[instruction].description
}

func (instruction Instruction) String() string {
	return string(instruction.Token())
}

// MatchOptionally returns the instruction triggered by r. Without respectCase the letter triggers
// also accept their lowercase form.
func MatchOptionally(r rune, respectCase bool) (Instruction, bool) {
	if !respectCase {
		r = util.ToUpperLetter(r)
	}
	instruction, exist := tokenInstructionMap[r]
	return instruction, exist
}

// Match is MatchOptionally failing with an unrecognized_token error that records r and its
// position in the source.
func Match(r rune, position int, respectCase bool) (Instruction, error) {
	instruction, exist := MatchOptionally(r, respectCase)
	if !exist {
		return instruction, makeUnrecognizedTokenErr(r, position)
	}
	return instruction, nil
}
