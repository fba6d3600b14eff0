package template

// MergeContexts merges suite globals and recorded dependency responses into a
// single lookup map for placeholder resolution. Later maps override earlier
// ones, so responses shadow globals of the same name.
func MergeContexts(contexts ...map[string]interface{}) map[string]interface{} {
	result := make(map[string]interface{})

	for _, ctx := range contexts {
		for key, value := range ctx {
			result[key] = value
		}
	}

	return result
}
