package schema

// Features is the fixed input order of the scaler and classifier.
var Features = [...]string{
	"spore_size_um",
	"spore_shape",
	"wall_type",
	"ornamentation",
	"gene_ITS",
	"genetic_cluster",
	"gc_content",
	"habitat_type",
	"elevation_m",
	"mean_temp_c",
	"pH",
	"conductividad_ds_m",
	"nitrogeno_total_pct",
	"textura_Arcillosa",
	"textura_Arenosa",
	"textura_Franca",
	"textura_Limosa",
}

// Width is the length of a feature vector.
const Width = len(Features)

// Names returns a copy of the feature names in schema order.
func Names() []string {
	names := make([]string, Width)
	copy(names, Features[:])
	return names
}
