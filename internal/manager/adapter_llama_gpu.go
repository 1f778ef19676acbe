//go:build llama && (cublas || metal)

package manager

const llamaGPUBuilt = true
