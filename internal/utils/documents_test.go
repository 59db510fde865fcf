package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateCPF(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"masked valid", "529.982.247-25", true},
		{"digits only valid", "11144477735", true},
		{"wrong check digits", "123.456.789-00", false},
		{"correct check digits", "123.456.789-09", true},
		{"repeated ones match arithmetically", "111.111.111-11", false},
		{"repeated zeros", "00000000000", false},
		{"too short", "5299822472", false},
		{"too long", "529982247255", false},
		{"empty", "", false},
		{"letters", "abc.def.ghi-jk", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidateCPF(tt.input))
		})
	}
}

func TestValidateCNPJ(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"masked valid", "11.222.333/0001-81", true},
		{"digits only valid", "11222333000181", true},
		{"wrong second digit", "11.222.333/0001-82", false},
		{"wrong first digit", "11.222.333/0001-71", false},
		{"repeated zeros match arithmetically", "00.000.000/0000-00", false},
		{"too short", "1122233300018", false},
		{"cpf length", "52998224725", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidateCNPJ(tt.input))
		})
	}
}

func TestValidateCEPAndPhone(t *testing.T) {
	assert.True(t, ValidateCEP("01310-100"))
	assert.True(t, ValidateCEP("01310100"))
	assert.False(t, ValidateCEP("01310-10"))

	assert.True(t, ValidatePhone("(11) 98765-4321"))
	assert.True(t, ValidatePhone("(11) 3456-7890"))
	assert.False(t, ValidatePhone("98765-4321"))
}

func TestValidateMailboxAndState(t *testing.T) {
	assert.True(t, ValidateMailbox("maria@example.com.br"))
	assert.False(t, ValidateMailbox("maria@example"))
	assert.False(t, ValidateMailbox("maria example@x.com"))

	assert.True(t, ValidateStateCode("SP"))
	assert.False(t, ValidateStateCode("sp"))
	assert.False(t, ValidateStateCode("SPX"))
}

func TestMasks(t *testing.T) {
	assert.Equal(t, "529.982.247-25", FormatCPF("52998224725"))
	assert.Equal(t, "529.9", FormatCPF("5299"))
	assert.Equal(t, "11.222.333/0001-81", FormatCNPJ("11222333000181"))
	assert.Equal(t, "01310-100", FormatCEP("01310100"))
	assert.Equal(t, "01310", FormatCEP("01310"))
	assert.Equal(t, "(11) 98765-4321", FormatPhone("11987654321"))
	assert.Equal(t, "(11) 3456-7890", FormatPhone("1134567890"))
	assert.Equal(t, "", FormatCEP("abc"))
	assert.Equal(t, "SP", FormatStateCode(" sp "))
	assert.Equal(t, "529.982.247-25", FormatCPF("529982247250000"))
}
