package chains

// ChainConfig describes one chain the directory listens on. One fee topic is
// derived per chain from (clusterId, chainId).
type ChainConfig struct {
	Name      string `yaml:"name" json:"name"`
	ChainID   uint64 `yaml:"chainId" json:"chainId"`
	ClusterID uint64 `yaml:"clusterId" json:"clusterId"`
}
