package constants

// ObjectKeyRoot - корень ключей изображений: <root>/<property_id>/<uuid>.<ext>
const ObjectKeyRoot = "properties"

const UsersTable = "users"
