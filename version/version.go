package version

const Version = "0.15.0"
