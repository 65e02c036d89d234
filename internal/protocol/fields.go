package protocol

import "google.golang.org/protobuf/encoding/protowire"

// Field numbers of the plugin schema. They are fixed for interoperability
// with every other implementation of the protocol.
const (
	FieldVersionMajor  protowire.Number = 1
	FieldVersionMinor  protowire.Number = 2
	FieldVersionPatch  protowire.Number = 3
	FieldVersionSuffix protowire.Number = 4

	FieldParameterName  protowire.Number = 1
	FieldParameterValue protowire.Number = 2

	FieldRequestWrapper         protowire.Number = 1
	FieldRequestOutputPath      protowire.Number = 2
	FieldRequestParameters      protowire.Number = 3
	FieldRequestCompilerVersion protowire.Number = 4

	FieldResponseErrors protowire.Number = 1
	FieldResponseFiles  protowire.Number = 2

	FieldFileName protowire.Number = 1
	FieldFileData protowire.Number = 2

	FieldWrapperName    protowire.Number = 1
	FieldWrapperVersion protowire.Number = 2
	FieldWrapperValue   protowire.Number = 3
)
