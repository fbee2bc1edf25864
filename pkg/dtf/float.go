package dtf

import "math"

func uint32FromFloat32(f float32) uint32 {
	return math.Float32bits(f)
}

func float32FromUint32(u uint32) float32 {
	return math.Float32frombits(u)
}
