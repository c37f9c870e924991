package bloomfilter

// seeds is the fixed table of 64-bit hash seeds used, in order, to
// derive the k hash functions of the filter. This exact sequence
// (including the deliberate deviation from strict ascending-prime
// order at indices 4, 6, and 12) is part of the external interface:
// changing it would silently change every test vector and every
// previously-written shared-memory segment's semantics.
var seeds = [100]uint64{
	2, 3, 5, 7, 521, 11, 523, 13, 17, 19,
	23, 29, 541, 31, 37, 41, 43, 47, 53, 59,
	61, 67, 71, 73, 79, 83, 89, 97, 101, 103,
	107, 109, 113, 127, 131, 137, 139, 149, 151, 157,
	163, 167, 173, 179, 181, 191, 193, 197, 199, 211,
	223, 227, 229, 233, 239, 241, 251, 257, 263, 269,
	271, 277, 281, 283, 293, 307, 311, 313, 317, 331,
	337, 347, 349, 353, 359, 367, 373, 379, 383, 389,
	397, 401, 409, 419, 421, 431, 433, 439, 443, 449,
	457, 461, 463, 467, 479, 487, 491, 499, 503, 509,
}

// maxK is the largest number of hash functions this filter supports,
// bounded by the length of the seed table.
const maxK = len(seeds)
