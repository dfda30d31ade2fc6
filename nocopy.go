package flight

// noCopy may be embedded into structs which must not be copied after
// first use. go vet's copylocks check recognizes the Lock and Unlock
// methods.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}
