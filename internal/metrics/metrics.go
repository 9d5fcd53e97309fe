package metrics

const Namespace = "lenny"
