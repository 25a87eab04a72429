package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRunListExitsZero(t *testing.T) {
	assert.Equal(t, 0, run([]string{"list"}))
}

func TestRunValidateSubcommandExitsZeroForGoodExample(t *testing.T) {
	assert.Equal(t, 0, run([]string{"validate", "add"}))
}

func TestRunExampleByNameExitsZero(t *testing.T) {
	assert.Equal(t, 0, run([]string{"add"}))
}

func TestRunUnknownExampleExitsOne(t *testing.T) {
	assert.Equal(t, 1, run([]string{"does-not-exist"}))
}

func TestRunSynthIsUnimplemented(t *testing.T) {
	assert.Equal(t, 1, run([]string{"--synth", "add"}))
}

func TestRunNoArgsShowsUsageAndExitsOne(t *testing.T) {
	assert.Equal(t, 1, run([]string{}))
}
