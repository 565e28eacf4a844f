// Package formats implements the quantized mesh binary format.
//
// A packed blob has no header. It holds, in order: indices (u16), coords and
// normals (int8 or int16, three per vertex), palette cells (u8, one per
// vertex), the optional trailer fields of the profile, and a table of four
// u32 offsets locating the indices, coords, normals and uvs sections.
// Everything is little-endian and there is no padding.
package formats
