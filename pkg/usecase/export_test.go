package usecase

// BuildPrompt is exported for testing
var BuildPrompt = buildPrompt

// ParseModelOutput is exported for testing
var ParseModelOutput = parseModelOutput

// ParsedOutput is exported for testing
type ParsedOutput = parsedOutput
