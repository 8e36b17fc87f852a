package program

import (
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/sarchlab/bfemu/instr"
)

// ImageVersion is the version written into new images.
const ImageVersion = 1

// ErrCorruptImage is returned when an image does not decode into a linked
// instruction sequence of a known version.
var ErrCorruptImage = errors.New("corrupt program image")

// Image is a compiled program: a parsed, optionally fused and linked
// instruction sequence that can be stored and run without the source.
type Image struct {
	Version   int          `cbor:"1,keyasint"`
	Optimized bool         `cbor:"2,keyasint"`
	Insts     []instr.Inst `cbor:"3,keyasint"`
}

var imageEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("program: failed to create CBOR enc mode: %v", err))
	}
	imageEncMode = em
}

// Compile parses src, fuses it when optimize is set, and links it.
func Compile(src []byte, mode ParseMode, optimize bool) (*Image, error) {
	insts, err := ParseWith(mode, src)
	if err != nil {
		return nil, err
	}

	if optimize {
		insts = Fuse(insts)
	}

	if err := Link(insts); err != nil {
		return nil, err
	}

	return &Image{
		Version:   ImageVersion,
		Optimized: optimize,
		Insts:     insts,
	}, nil
}

// MarshalImage serializes an image to canonical CBOR.
func MarshalImage(img *Image) ([]byte, error) {
	return imageEncMode.Marshal(img)
}

// UnmarshalImage decodes an image and checks that it is runnable.
func UnmarshalImage(data []byte) (*Image, error) {
	var img Image
	if err := cbor.Unmarshal(data, &img); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptImage, err)
	}

	if img.Version != ImageVersion {
		return nil, fmt.Errorf("%w: version %d", ErrCorruptImage, img.Version)
	}

	for i, inst := range img.Insts {
		if inst.Kind > instr.LoopEnd {
			return nil, fmt.Errorf("%w: bad instruction kind at %d", ErrCorruptImage, i)
		}
	}

	if !Linked(img.Insts) {
		return nil, fmt.Errorf("%w: loop targets are not linked", ErrCorruptImage)
	}

	return &img, nil
}
