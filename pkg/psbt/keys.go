package psbt

// Global map key types, per BIP174 / spec §4.6.
const (
	GlobalUnsignedTx  byte = 0x00
	GlobalXpub        byte = 0x01
	GlobalVersion     byte = 0xfb
	GlobalProprietary byte = 0xfc
)

// Input map key types.
const (
	InputNonWitnessUTXO     byte = 0x00
	InputWitnessUTXO        byte = 0x01
	InputPartialSig         byte = 0x02
	InputSighashType        byte = 0x03
	InputRedeemScript       byte = 0x04
	InputWitnessScript      byte = 0x05
	InputBIP32Derivation    byte = 0x06
	InputFinalScriptSig     byte = 0x07
	InputFinalScriptWitness byte = 0x08
)

// Output map key types.
const (
	OutputRedeemScript    byte = 0x00
	OutputWitnessScript   byte = 0x01
	OutputBIP32Derivation byte = 0x02
)
